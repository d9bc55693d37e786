// Package main is the CLI command itself.
package main

import (
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	// Flags.
	flagScale     = "scale"
	flagPCDFormat = "pcd-format"
	flagPolicy    = "policy"
	flagPalette   = "palette"
	flagFactors   = "factors"
	flagVoxel     = "voxel"
	flagTrees     = "trees"
	flagWidth     = "width"
	flagBox       = "box"
)

// logger is assigned by the app's Before hook.
var logger golog.Logger = zap.NewNop().Sugar()

func main() {
	app := &cli.App{
		Name:  "lidarview",
		Usage: "inspect and transform forestry LiDAR point clouds",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("lidarview")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print the header and attribute summary of a LAS file",
				ArgsUsage: "<file.las>",
				Action:    infoAction,
			},
			{
				Name:      "convert",
				Usage:     "re-encode a LAS file or export it as PCD",
				ArgsUsage: "<in.las> <out.las|out.pcd>",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagScale,
						Usage: "coordinate quantization step in meters for LAS output",
						Value: 0.001,
					},
					&cli.StringFlag{
						Name:  flagPCDFormat,
						Usage: "PCD data layout: ascii or binary",
						Value: "binary",
					},
					&cli.StringFlag{
						Name:  flagPolicy,
						Usage: "color policy for PCD output: height, intensity, classification, or rgb",
						Value: "height",
					},
				},
				Action: convertAction,
			},
			{
				Name:      "sample",
				Usage:     "build decimated detail levels and write one LAS per level",
				ArgsUsage: "<in.las> <outdir>",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{
						Name:  flagFactors,
						Usage: "stride decimation factors",
						Value: cli.NewIntSlice(4, 16, 64),
					},
					&cli.Float64Flag{
						Name:  flagVoxel,
						Usage: "voxel edge length in meters; replaces stride sampling",
					},
				},
				Action: sampleAction,
			},
			{
				Name:      "paint",
				Usage:     "colorize a cloud and write the colors back as LAS RGB",
				ArgsUsage: "<in.las> <out.las>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagPolicy,
						Usage: "color policy: height, intensity, classification, or rgb",
						Value: "height",
					},
					&cli.StringFlag{
						Name:  flagPalette,
						Usage: "palette JSON with class overrides and gradient stops",
					},
				},
				Action: paintAction,
			},
			{
				Name:      "map",
				Usage:     "render a top-down PNG of the cloud",
				ArgsUsage: "<in.las> <out.png>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagTrees,
						Usage: "overlay tree markers from a detection JSON export",
					},
					&cli.IntFlag{
						Name:  flagWidth,
						Usage: "longest image side in pixels",
						Value: 1024,
					},
					&cli.StringFlag{
						Name:  flagBox,
						Usage: "highlight a ground rectangle, as minX,minY,maxX,maxY",
					},
					&cli.StringFlag{
						Name:  flagPolicy,
						Usage: "color policy: height, intensity, classification, or rgb",
						Value: "height",
					},
				},
				Action: mapAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
