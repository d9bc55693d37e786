package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/las"
)

// asprsClassNames covers the LAS 1.2 standard classes. Codes at or above
// coloring.UserClassThreshold are customer-defined.
var asprsClassNames = map[int]string{
	0:  "never classified",
	1:  "unclassified",
	2:  "ground",
	3:  "low vegetation",
	4:  "medium vegetation",
	5:  "high vegetation",
	6:  "building",
	7:  "low point (noise)",
	8:  "model key point",
	9:  "water",
	10: "rail",
	11: "road surface",
	12: "overlap",
	13: "wire guard",
	14: "wire conductor",
	15: "transmission tower",
	16: "wire structure connector",
	17: "bridge deck",
	18: "high noise",
}

func classNameFor(code int) string {
	if name, ok := asprsClassNames[code]; ok {
		return name
	}
	if code >= coloring.UserClassThreshold {
		return "user defined"
	}
	return "reserved"
}

func infoAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	path := c.Args().First()
	//nolint:gosec
	buf, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %q", path)
	}
	pd, err := las.Parse(buf)
	if err != nil {
		return err
	}
	h := pd.Header

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow([]interface{}{"Version", fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)})
	t.AppendRow([]interface{}{"Point format", h.PointFormatID})
	t.AppendRow([]interface{}{"Points", pd.Count()})
	t.AppendRow([]interface{}{"System ID", h.SystemID})
	t.AppendRow([]interface{}{"Generating software", h.GeneratingSoftware})
	t.AppendRow([]interface{}{"Created", fmt.Sprintf("day %d of %d", h.FileCreationDay, h.FileCreationYear)})
	t.AppendRow([]interface{}{"Scale", fmt.Sprintf("%g %g %g", h.XScaleFactor, h.YScaleFactor, h.ZScaleFactor)})
	t.AppendRow([]interface{}{"Offset", fmt.Sprintf("%g %g %g", h.XOffset, h.YOffset, h.ZOffset)})
	t.AppendRow([]interface{}{"Min", fmt.Sprintf("%.3f %.3f %.3f", h.MinX, h.MinY, h.MinZ)})
	t.AppendRow([]interface{}{"Max", fmt.Sprintf("%.3f %.3f %.3f", h.MaxX, h.MaxY, h.MaxZ)})
	t.AppendRow([]interface{}{"GPS time", pd.HasGPSTime()})
	t.AppendRow([]interface{}{"RGB", pd.HasRGB()})
	fmt.Fprintln(c.App.Writer, t.Render())

	st := table.NewWriter()
	st.AppendHeader(table.Row{"Attribute", "Mean", "StdDev", "Min", "Max"})
	appendStats(st, "z (m)", pd.Z)
	appendStats(st, "intensity", toFloat64(pd.Intensity))
	if pd.HasGPSTime() {
		appendStats(st, "gps time", pd.GPSTime)
	}
	fmt.Fprintln(c.App.Writer, st.Render())

	if len(pd.Classification) > 0 {
		counts := make(map[uint8]int)
		for _, code := range pd.Classification {
			counts[code]++
		}
		codes := make([]int, 0, len(counts))
		for code := range counts {
			codes = append(codes, int(code))
		}
		sort.Ints(codes)

		ct := table.NewWriter()
		ct.AppendHeader(table.Row{"Class", "Name", "Points"})
		for _, code := range codes {
			ct.AppendRow([]interface{}{code, classNameFor(code), counts[uint8(code)]})
		}
		fmt.Fprintln(c.App.Writer, ct.Render())
	}
	return nil
}

// appendStats adds one summary row, skipping attributes with no data.
func appendStats(t table.Writer, name string, values []float64) {
	if len(values) == 0 {
		return
	}
	mean, err := stats.Mean(values)
	sd, err2 := stats.StandardDeviation(values)
	minV, err3 := stats.Min(values)
	maxV, err4 := stats.Max(values)
	if (err != nil) || (err2 != nil) || (err3 != nil) || (err4 != nil) {
		return
	}
	t.AppendRow([]interface{}{
		name,
		fmt.Sprintf("%.3f", mean),
		fmt.Sprintf("%.3f", sd),
		fmt.Sprintf("%.3f", minV),
		fmt.Sprintf("%.3f", maxV),
	})
}

func toFloat64(values []uint16) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
