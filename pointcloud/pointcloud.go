// Package pointcloud defines the dense point cloud artifact produced by the
// loading pipeline and consumed by the rendering, decimation, and picking
// layers.
//
// Unlike a general purpose point container, the layout here is fixed:
// positions and colors live in flat interleaved float32 buffers sized for
// direct GPU upload, with the source LAS attribute columns retained alongside
// so points can be recolored without re-reading the file.
package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/treescape/lidarview/las"
)

// Beyond this range a float64 coordinate no longer round-trips through
// float32 with integer precision intact.
const (
	maxPreciseFloat64 = float64(1 << 24)
	minPreciseFloat64 = -float64(1 << 24)
)

// Data is a dense, GPU-layout point cloud. Positions is always populated
// with Count*3 interleaved XYZ values. Colors is nil until a colorize pass
// assigns it via SetColors and always replaced wholesale, never edited in
// place. The attribute columns mirror the source LAS data and are nil when
// the source lacked them.
type Data struct {
	Positions []float32
	Colors    []float32
	Count     int
	Bounds    Bounds

	Intensity      []uint16
	Classification []uint8
	Red            []uint16
	Green          []uint16
	Blue           []uint16

	Metadata map[string]interface{}
}

// NewFromLAS converts decoded LAS columns into the dense artifact, taking
// ownership of the attribute slices. Coordinates beyond float32 integer
// precision are converted anyway; one aggregate warning reports how many.
func NewFromLAS(pd *las.PointData, logger golog.Logger) *Data {
	n := pd.Count()
	d := &Data{
		Positions:      make([]float32, 3*n),
		Count:          n,
		Bounds:         NewBounds(),
		Intensity:      pd.Intensity,
		Classification: pd.Classification,
		Red:            pd.Red,
		Green:          pd.Green,
		Blue:           pd.Blue,
		Metadata: map[string]interface{}{
			"format":             int(pd.Header.PointFormatID),
			"systemID":           pd.Header.SystemID,
			"generatingSoftware": pd.Header.GeneratingSoftware,
			"hasGPSTime":         pd.HasGPSTime(),
			"hasRGB":             pd.HasRGB(),
		},
	}

	lossy := 0
	for i := 0; i < n; i++ {
		x, y, z := pd.X[i], pd.Y[i], pd.Z[i]
		if x < minPreciseFloat64 || x > maxPreciseFloat64 ||
			y < minPreciseFloat64 || y > maxPreciseFloat64 ||
			z < minPreciseFloat64 || z > maxPreciseFloat64 {
			lossy++
		}
		fx, fy, fz := float32(x), float32(y), float32(z)
		d.Positions[3*i] = fx
		d.Positions[3*i+1] = fy
		d.Positions[3*i+2] = fz
		// bounds come from the converted values so they always enclose
		// exactly what the buffer holds
		d.Bounds.Merge(r3.Vector{X: float64(fx), Y: float64(fy), Z: float64(fz)})
	}
	if lossy > 0 {
		logger.Warnw("point coordinates exceed float32 integer precision",
			"points", lossy,
			"min", minPreciseFloat64,
			"max", maxPreciseFloat64)
	}
	return d
}

// Position returns point i as a vector.
func (d *Data) Position(i int) r3.Vector {
	return r3.Vector{
		X: float64(d.Positions[3*i]),
		Y: float64(d.Positions[3*i+1]),
		Z: float64(d.Positions[3*i+2]),
	}
}

// HasColor reports whether a colorize pass has run.
func (d *Data) HasColor() bool {
	return d.Colors != nil
}

// HasSourceRGB reports whether the source carried per-point color.
func (d *Data) HasSourceRGB() bool {
	return d.Red != nil
}

// SetColors replaces the color buffer. The buffer must hold exactly three
// values per point.
func (d *Data) SetColors(colors []float32) error {
	if len(colors) != 3*d.Count {
		return errors.Errorf("color buffer has %d values, want %d", len(colors), 3*d.Count)
	}
	d.Colors = colors
	return nil
}

// Footprint returns the memory held by the buffers, in bytes. Cache eviction
// budgets are computed from this.
func (d *Data) Footprint() int64 {
	var n int64
	n += int64(len(d.Positions)) * 4
	n += int64(len(d.Colors)) * 4
	n += int64(len(d.Intensity)) * 2
	n += int64(len(d.Classification))
	n += int64(len(d.Red)+len(d.Green)+len(d.Blue)) * 2
	return n
}

// MetaString returns a metadata entry coerced to a string.
func (d *Data) MetaString(key string) string {
	return cast.ToString(d.Metadata[key])
}

// MetaInt returns a metadata entry coerced to an int.
func (d *Data) MetaInt(key string) int {
	return cast.ToInt(d.Metadata[key])
}

// MetaBool returns a metadata entry coerced to a bool.
func (d *Data) MetaBool(key string) bool {
	return cast.ToBool(d.Metadata[key])
}
