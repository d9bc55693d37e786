package main

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/loader"
	"github.com/treescape/lidarview/pointcloud"
	"github.com/treescape/lidarview/trees"
)

const (
	mapMargin    = 12
	minTreePx    = 2.0
	treeStrokePx = 1.5
)

// mapGrid maps world XY onto image pixels with north up.
type mapGrid struct {
	minX, minY float64
	maxY       float64
	scale      float64
	w, h       int
}

// newMapGrid fits the cloud's footprint inside widthPx on its longer side,
// leaving a fixed margin.
func newMapGrid(b pointcloud.Bounds, widthPx int) mapGrid {
	size := b.Size()
	span := math.Max(size.X, size.Y)
	if span <= 0 {
		span = 1
	}
	scale := float64(widthPx-2*mapMargin) / span
	return mapGrid{
		minX:  b.Min.X,
		minY:  b.Min.Y,
		maxY:  b.Max.Y,
		scale: scale,
		w:     int(math.Ceil(size.X*scale)) + 2*mapMargin,
		h:     int(math.Ceil(size.Y*scale)) + 2*mapMargin,
	}
}

func (g mapGrid) pixel(x, y float64) (float64, float64) {
	return mapMargin + (x-g.minX)*g.scale, mapMargin + (g.maxY-y)*g.scale
}

func mapAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)
	width := c.Int(flagWidth)
	if width < 4*mapMargin {
		return errors.Errorf("width must be at least %d pixels", 4*mapMargin)
	}

	policy, copts, err := colorFlags(c)
	if err != nil {
		return err
	}
	res, err := loadCloud(c, in, loader.Options{ColorPolicy: policy, ColorOptions: copts})
	if err != nil {
		return err
	}
	cloud := res.Cloud
	if cloud.Count == 0 {
		return errors.New("cloud has no points to render")
	}

	grid := newMapGrid(cloud.Bounds, width)
	dc := gg.NewContext(grid.w, grid.h)
	dc.SetRGB(0.07, 0.09, 0.11)
	dc.Clear()

	for i := 0; i < cloud.Count; i++ {
		px, py := grid.pixel(float64(cloud.Positions[3*i]), float64(cloud.Positions[3*i+1]))
		dc.SetColor(color.RGBA{
			R: to8(cloud.Colors[3*i]),
			G: to8(cloud.Colors[3*i+1]),
			B: to8(cloud.Colors[3*i+2]),
			A: 255,
		})
		dc.SetPixel(int(px), int(py))
	}

	if path := c.String(flagTrees); path != "" {
		list, err := trees.LoadFile(path)
		if err != nil {
			return err
		}
		markers := coloring.ForTrees(list, coloring.TreesBySpecies)
		for i := range list {
			px, py := grid.pixel(list[i].X, list[i].Y)
			r := list[i].CrownDiameter / 2 * grid.scale
			if r < minTreePx {
				r = minTreePx
			}
			dc.SetColor(color.RGBA{
				R: to8(float32(markers[i].R)),
				G: to8(float32(markers[i].G)),
				B: to8(float32(markers[i].B)),
				A: 255,
			})
			dc.SetLineWidth(treeStrokePx)
			dc.DrawCircle(px, py, r)
			dc.Stroke()
		}
		fmt.Fprintf(c.App.Writer, "overlaid %d tree markers\n", len(list))
	}

	if boxStr := c.String(flagBox); boxStr != "" {
		box, err := parseBox(boxStr)
		if err != nil {
			return err
		}
		x0, y0 := grid.pixel(box.minX, box.maxY)
		x1, y1 := grid.pixel(box.maxX, box.minY)
		dc.SetColor(color.RGBA{R: 255, G: 235, B: 59, A: 255})
		dc.SetLineWidth(2)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}

	if err := dc.SavePNG(out); err != nil {
		return errors.Wrapf(err, "writing %q", out)
	}
	fmt.Fprintf(c.App.Writer, "rendered %d points to %s (%dx%d)\n", cloud.Count, out, grid.w, grid.h)
	return nil
}

// worldBox is an axis-aligned ground rectangle in world coordinates.
type worldBox struct {
	minX, minY, maxX, maxY float64
}

func parseBox(s string) (worldBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return worldBox{}, errors.Errorf("box %q: want minX,minY,maxX,maxY", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return worldBox{}, errors.Wrapf(err, "box coordinate %q", p)
		}
		vals[i] = v
	}
	b := worldBox{minX: vals[0], minY: vals[1], maxX: vals[2], maxY: vals[3]}
	if b.maxX < b.minX {
		b.minX, b.maxX = b.maxX, b.minX
	}
	if b.maxY < b.minY {
		b.minY, b.maxY = b.maxY, b.minY
	}
	return b, nil
}
