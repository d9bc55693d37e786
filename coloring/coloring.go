// Package coloring computes per-point color buffers from point attributes.
// All colorize passes are pure: they read the cloud, allocate a fresh buffer,
// and leave the cloud untouched, so recoloring never disturbs geometry shared
// with the renderer.
package coloring

import (
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/treescape/lidarview/pointcloud"
)

// Policy selects which point attribute drives the color buffer.
type Policy int

const (
	// Height maps elevation onto a gradient.
	Height Policy = iota
	// Intensity maps return intensity onto grayscale.
	Intensity
	// Classification applies the class palette.
	Classification
	// RGB passes the stored sensor color through.
	RGB
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Height:
		return "height"
	case Intensity:
		return "intensity"
	case Classification:
		return "classification"
	case RGB:
		return "rgb"
	}
	return "unknown"
}

// ParsePolicy maps a config or CLI name onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "height":
		return Height, nil
	case "intensity":
		return Intensity, nil
	case "classification", "class":
		return Classification, nil
	case "rgb", "color":
		return RGB, nil
	}
	return 0, errors.Errorf("unknown color policy %q", s)
}

// RGBColor is a normalized color triple in [0,1].
type RGBColor struct {
	R, G, B float64
}

// HexRGB parses a "#rrggbb" string.
func HexRGB(s string) (RGBColor, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBColor{}, errors.Wrapf(err, "parsing color %q", s)
	}
	return RGBColor{R: c.R, G: c.G, B: c.B}, nil
}

func (c RGBColor) toColorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

func fromColorful(c colorful.Color) RGBColor {
	return RGBColor{R: c.R, G: c.G, B: c.B}
}

type options struct {
	gradient     []GradientStop
	overrides    map[uint8]colorful.Color
	intensityMin float64
	intensityMax float64
	defaultColor colorful.Color
}

// Option adjusts a colorize pass.
type Option func(*options)

// WithGradient replaces the height gradient. Stops must be ordered by
// ascending position.
func WithGradient(stops []GradientStop) Option {
	return func(o *options) { o.gradient = stops }
}

// WithOverrides pins specific classification codes to fixed colors, taking
// precedence over both the standard and the rotating palettes.
func WithOverrides(overrides map[uint8]RGBColor) Option {
	return func(o *options) {
		o.overrides = make(map[uint8]colorful.Color, len(overrides))
		for code, c := range overrides {
			o.overrides[code] = c.toColorful()
		}
	}
}

// WithIntensityRange stretches the intensity grayscale over [min, max]
// instead of the full 16-bit domain.
func WithIntensityRange(min, max float64) Option {
	return func(o *options) {
		o.intensityMin = min
		o.intensityMax = max
	}
}

// WithDefaultColor replaces the fallback used for points whose driving
// attribute is missing or unmapped.
func WithDefaultColor(c RGBColor) Option {
	return func(o *options) { o.defaultColor = c.toColorful() }
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		gradient:     DefaultHeightGradient(),
		intensityMin: 0,
		intensityMax: 65535,
		defaultColor: defaultClassColor,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.gradient) < 2 {
		return o, errors.New("gradient needs at least two stops")
	}
	for i := 1; i < len(o.gradient); i++ {
		if o.gradient[i].Position < o.gradient[i-1].Position {
			return o, errors.Errorf("gradient stops out of order at %d", i)
		}
	}
	if o.intensityMax <= o.intensityMin {
		return o, errors.Errorf("intensity range [%f, %f] is empty", o.intensityMin, o.intensityMax)
	}
	return o, nil
}

// Colorize returns a fresh interleaved RGB buffer for the cloud under the
// given policy. Points whose driving attribute is absent fall back to the
// default color rather than failing, so a policy switch in the viewer always
// succeeds once a cloud is loaded.
func Colorize(d *pointcloud.Data, p Policy, opts ...Option) ([]float32, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	out := make([]float32, 3*d.Count)
	switch p {
	case Height:
		colorizeHeight(out, d, &o)
	case Intensity:
		colorizeIntensity(out, d, &o)
	case Classification:
		colorizeClassification(out, d, &o)
	case RGB:
		colorizeRGB(out, d, &o)
	default:
		return nil, errors.Errorf("unknown color policy %d", p)
	}
	return out, nil
}

func put(out []float32, i int, c colorful.Color) {
	out[3*i] = float32(c.R)
	out[3*i+1] = float32(c.G)
	out[3*i+2] = float32(c.B)
}

func colorizeHeight(out []float32, d *pointcloud.Data, o *options) {
	minZ := d.Bounds.Min.Z
	span := d.Bounds.Max.Z - minZ
	for i := 0; i < d.Count; i++ {
		t := 0.0
		if span > 1e-9 {
			t = (float64(d.Positions[3*i+2]) - minZ) / span
		}
		put(out, i, evalGradient(o.gradient, t))
	}
}

func colorizeIntensity(out []float32, d *pointcloud.Data, o *options) {
	if d.Intensity == nil {
		fill(out, d.Count, o.defaultColor)
		return
	}
	span := o.intensityMax - o.intensityMin
	for i := 0; i < d.Count; i++ {
		t := (float64(d.Intensity[i]) - o.intensityMin) / span
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		put(out, i, colorful.Color{R: t, G: t, B: t})
	}
}

func colorizeClassification(out []float32, d *pointcloud.Data, o *options) {
	if d.Classification == nil {
		fill(out, d.Count, o.defaultColor)
		return
	}
	for i := 0; i < d.Count; i++ {
		put(out, i, classColor(d.Classification[i], o.overrides, o.defaultColor))
	}
}

func colorizeRGB(out []float32, d *pointcloud.Data, o *options) {
	if !d.HasSourceRGB() {
		fill(out, d.Count, o.defaultColor)
		return
	}
	scale := rgbScale(d)
	for i := 0; i < d.Count; i++ {
		out[3*i] = float32(float64(d.Red[i]) / scale)
		out[3*i+1] = float32(float64(d.Green[i]) / scale)
		out[3*i+2] = float32(float64(d.Blue[i]) / scale)
	}
}

// rgbScale detects files that store 8-bit color in 16-bit fields: when every
// channel of every point fits a byte, dividing by 65535 would render the
// cloud nearly black.
func rgbScale(d *pointcloud.Data) float64 {
	for i := range d.Red {
		if d.Red[i] > 255 || d.Green[i] > 255 || d.Blue[i] > 255 {
			return 65535
		}
	}
	return 255
}

func fill(out []float32, count int, c colorful.Color) {
	for i := 0; i < count; i++ {
		put(out, i, c)
	}
}

// AutoIntensityRange returns a 2-98% quantile stretch of the cloud's
// intensity column, which keeps a few hot returns from washing out the
// grayscale. Clouds without intensity get the full 16-bit domain.
func AutoIntensityRange(d *pointcloud.Data) (float64, float64) {
	if len(d.Intensity) == 0 {
		return 0, 65535
	}
	vals := make([]float64, len(d.Intensity))
	for i, v := range d.Intensity {
		vals[i] = float64(v)
	}
	sort.Float64s(vals)
	lo := stat.Quantile(0.02, stat.Empirical, vals, nil)
	hi := stat.Quantile(0.98, stat.Empirical, vals, nil)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}
