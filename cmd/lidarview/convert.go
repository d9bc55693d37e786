package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/las"
	"github.com/treescape/lidarview/pointcloud"
)

func convertAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)
	//nolint:gosec
	buf, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "reading %q", in)
	}
	pd, err := las.Parse(buf)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".las":
		opts := las.DefaultEncodeOptions()
		if s := c.Float64(flagScale); s > 0 {
			opts.Scale = r3.Vector{X: s, Y: s, Z: s}
		}
		enc, err := las.Encode(pd, opts)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, enc, 0o644); err != nil {
			return errors.Wrapf(err, "writing %q", out)
		}
	case ".pcd":
		pcdType, err := parsePCDFormat(c.String(flagPCDFormat))
		if err != nil {
			return err
		}
		policy, copts, err := colorFlags(c)
		if err != nil {
			return err
		}
		cloud := pointcloud.NewFromLAS(pd, logger)
		colors, err := coloring.Colorize(cloud, policy, copts...)
		if err != nil {
			return err
		}
		if err := cloud.SetColors(colors); err != nil {
			return err
		}
		if err := writeFile(out, func(w io.Writer) error {
			return cloud.ToPCD(w, pcdType)
		}); err != nil {
			return err
		}
	default:
		return errors.Errorf("unsupported output format %q, want .las or .pcd", ext)
	}

	fmt.Fprintf(c.App.Writer, "wrote %d points to %s\n", pd.Count(), out)
	return nil
}

func parsePCDFormat(s string) (pointcloud.PCDType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascii":
		return pointcloud.PCDAscii, nil
	case "binary":
		return pointcloud.PCDBinary, nil
	}
	return 0, errors.Errorf("unknown PCD layout %q, want ascii or binary", s)
}
