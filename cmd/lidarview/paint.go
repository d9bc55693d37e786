package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/las"
	"github.com/treescape/lidarview/pointcloud"
)

func paintAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)
	policy, copts, err := colorFlags(c)
	if err != nil {
		return err
	}

	//nolint:gosec
	buf, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "reading %q", in)
	}
	pd, err := las.Parse(buf)
	if err != nil {
		return err
	}

	cloud := pointcloud.NewFromLAS(pd, logger)
	colors, err := coloring.Colorize(cloud, policy, copts...)
	if err != nil {
		return err
	}

	n := pd.Count()
	red := make([]uint16, n)
	green := make([]uint16, n)
	blue := make([]uint16, n)
	for i := 0; i < n; i++ {
		red[i] = to16(colors[3*i])
		green[i] = to16(colors[3*i+1])
		blue[i] = to16(colors[3*i+2])
	}
	pd.Red, pd.Green, pd.Blue = red, green, blue

	enc, err := las.Encode(pd, las.DefaultEncodeOptions())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, enc, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", out)
	}
	fmt.Fprintf(c.App.Writer, "painted %d points by %s to %s\n", n, policy, out)
	return nil
}
