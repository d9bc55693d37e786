package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/treescape/lidarview/las"
	"github.com/treescape/lidarview/loader"
	"github.com/treescape/lidarview/lod"
)

func sampleAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	in, outDir := c.Args().Get(0), c.Args().Get(1)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %q", outDir)
	}

	voxel := c.Float64(flagVoxel)
	var opts loader.Options
	if voxel <= 0 {
		opts.LODFactors = c.IntSlice(flagFactors)
	}
	res, err := loadCloud(c, in, opts)
	if err != nil {
		return err
	}

	levels := res.Levels
	if voxel > 0 {
		lvl, err := lod.BuildVoxelLevel(res.Cloud, voxel)
		if err != nil {
			return err
		}
		levels = []lod.Level{lvl}
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	for _, lvl := range levels {
		name := fmt.Sprintf("%s_f%d.las", base, lvl.Factor)
		if voxel > 0 {
			name = fmt.Sprintf("%s_v%g.las", base, voxel)
		}
		enc, err := las.Encode(levelToPointData(lvl), las.DefaultEncodeOptions())
		if err != nil {
			return errors.Wrapf(err, "encoding level %d", lvl.Factor)
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, enc, 0o644); err != nil {
			return errors.Wrapf(err, "writing %q", path)
		}
		fmt.Fprintf(c.App.Writer, "%s: %d points\n", name, lvl.Count)
	}
	return nil
}

// levelToPointData lifts a decimated level back into encodable columns.
// Attribute columns other than color do not survive decimation.
func levelToPointData(lvl lod.Level) *las.PointData {
	pd := &las.PointData{
		X: make([]float64, lvl.Count),
		Y: make([]float64, lvl.Count),
		Z: make([]float64, lvl.Count),
	}
	if lvl.Colors != nil {
		pd.Red = make([]uint16, lvl.Count)
		pd.Green = make([]uint16, lvl.Count)
		pd.Blue = make([]uint16, lvl.Count)
	}
	for i := 0; i < lvl.Count; i++ {
		pd.X[i] = float64(lvl.Positions[3*i])
		pd.Y[i] = float64(lvl.Positions[3*i+1])
		pd.Z[i] = float64(lvl.Positions[3*i+2])
		if lvl.Colors != nil {
			pd.Red[i] = to16(lvl.Colors[3*i])
			pd.Green[i] = to16(lvl.Colors[3*i+1])
			pd.Blue[i] = to16(lvl.Colors[3*i+2])
		}
	}
	return pd
}
