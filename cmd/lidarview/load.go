package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/treescape/lidarview/coloring"
	"github.com/treescape/lidarview/loader"
	lvutils "github.com/treescape/lidarview/utils"
)

// loadCloud runs the loading pipeline against a local file, with a terminal
// spinner tracking download and processing progress.
func loadCloud(c *cli.Context, path string, opts loader.Options) (*loader.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %q", path)
	}
	name := filepath.Base(abs)
	source := &loader.FileSource{Root: filepath.Dir(abs)}

	spinner, err := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithText(fmt.Sprintf("loading %s", name)).
		Start()
	if err != nil {
		return nil, err
	}
	opts.OnProgress = func(p loader.Progress) {
		switch p.Stage {
		case loader.StageDownloading:
			if p.BytesTotal >= 0 {
				spinner.UpdateText(fmt.Sprintf("reading %s: %.0f%%", name, p.Percent))
			} else {
				spinner.UpdateText(fmt.Sprintf("reading %s: %d bytes", name, p.BytesLoaded))
			}
		case loader.StageParsing:
			spinner.UpdateText(fmt.Sprintf("parsing %s", name))
		case loader.StageProcessing:
			spinner.UpdateText(fmt.Sprintf("processing %s", name))
		}
	}

	res, err := loader.NewLoader(source, logger).Load(c.Context, name, opts)
	if err != nil {
		spinner.Fail(err.Error())
		return nil, err
	}
	spinner.Success(fmt.Sprintf("loaded %d points from %s", res.Cloud.Count, name))
	return res, nil
}

// colorFlags resolves the shared --policy and --palette flags.
func colorFlags(c *cli.Context) (coloring.Policy, []coloring.Option, error) {
	policy, err := coloring.ParsePolicy(c.String(flagPolicy))
	if err != nil {
		return 0, nil, err
	}
	var opts []coloring.Option
	if path := c.String(flagPalette); path != "" {
		opts, err = coloring.LoadPaletteFile(path)
		if err != nil {
			return 0, nil, err
		}
	}
	return policy, opts, nil
}

// writeFile streams fn to a freshly created file, folding the close error
// into the result.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return fn(f)
}

// to8 converts a normalized color channel to its 8-bit value.
func to8(v float32) uint8 {
	return uint8(lvutils.Clamp(math.Round(float64(v)*255), 0, 255))
}

// to16 converts a normalized color channel to the 16-bit range LAS stores.
func to16(v float32) uint16 {
	return uint16(lvutils.Clamp(math.Round(float64(v)*65535), 0, 65535))
}
