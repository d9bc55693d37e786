package coloring

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// UserClassThreshold is the first classification code treated as a
// user-defined class. Forestry pipelines stamp per-stand or per-species
// labels into this range, so codes at or above it cycle a rotating palette
// instead of falling back to gray.
const UserClassThreshold = 64

// standardClassPalette covers ASPRS LAS classes 0 through 18.
var standardClassPalette = map[uint8]colorful.Color{
	0:  mustHex("#9e9e9e"), // never classified
	1:  mustHex("#bdbdbd"), // unclassified
	2:  mustHex("#8d6e63"), // ground
	3:  mustHex("#a5d6a7"), // low vegetation
	4:  mustHex("#66bb6a"), // medium vegetation
	5:  mustHex("#2e7d32"), // high vegetation
	6:  mustHex("#e53935"), // building
	7:  mustHex("#d81b60"), // low point (noise)
	8:  mustHex("#ffb300"), // model key point
	9:  mustHex("#1e88e5"), // water
	10: mustHex("#6d4c41"), // rail
	11: mustHex("#616161"), // road surface
	12: mustHex("#9ccc65"), // overlap
	13: mustHex("#ffee58"), // wire guard
	14: mustHex("#fdd835"), // wire conductor
	15: mustHex("#8e24aa"), // transmission tower
	16: mustHex("#f06292"), // wire structure connector
	17: mustHex("#90a4ae"), // bridge deck
	18: mustHex("#ff5252"), // high noise
}

// rotatingPalette colors user-defined classes, cycling when they outnumber
// its entries.
var rotatingPalette = []colorful.Color{
	mustHex("#1f77b4"),
	mustHex("#ff7f0e"),
	mustHex("#2ca02c"),
	mustHex("#d62728"),
	mustHex("#9467bd"),
	mustHex("#8c564b"),
	mustHex("#e377c2"),
	mustHex("#7f7f7f"),
	mustHex("#bcbd22"),
	mustHex("#17becf"),
}

var defaultClassColor = mustHex("#808080")

// classColor resolves a classification code: explicit overrides win, then
// user-defined codes rotate, then the standard palette, then the default.
func classColor(code uint8, overrides map[uint8]colorful.Color, fallback colorful.Color) colorful.Color {
	if c, ok := overrides[code]; ok {
		return c
	}
	if code >= UserClassThreshold {
		return rotatingPalette[int(code-UserClassThreshold)%len(rotatingPalette)]
	}
	if c, ok := standardClassPalette[code]; ok {
		return c
	}
	return fallback
}

type paletteFile struct {
	Classes  map[string]string `json:"classes"`
	Gradient []struct {
		Position float64 `json:"position"`
		Color    string  `json:"color"`
	} `json:"gradient"`
}

// LoadPaletteFile reads customer palette JSON and returns the colorize
// options it encodes: classification overrides keyed by code and, when
// present, a replacement height gradient.
func LoadPaletteFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading palette %q", path)
	}
	var pf paletteFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrapf(err, "parsing palette %q", path)
	}

	var opts []Option
	if len(pf.Classes) > 0 {
		overrides := make(map[uint8]RGBColor, len(pf.Classes))
		for key, hex := range pf.Classes {
			code, err := strconv.ParseUint(key, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "classification code %q", key)
			}
			c, err := HexRGB(hex)
			if err != nil {
				return nil, err
			}
			overrides[uint8(code)] = c
		}
		opts = append(opts, WithOverrides(overrides))
	}
	if len(pf.Gradient) > 0 {
		if len(pf.Gradient) < 2 {
			return nil, errors.New("palette gradient needs at least two stops")
		}
		stops := make([]GradientStop, len(pf.Gradient))
		for i, gs := range pf.Gradient {
			c, err := colorful.Hex(gs.Color)
			if err != nil {
				return nil, errors.Wrapf(err, "gradient stop %d", i)
			}
			stops[i] = GradientStop{Position: gs.Position, Color: c}
		}
		sort.Slice(stops, func(i, j int) bool { return stops[i].Position < stops[j].Position })
		opts = append(opts, WithGradient(stops))
	}
	return opts, nil
}
