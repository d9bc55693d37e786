package las

import (
	"encoding/binary"
	"math"
)

// PointData holds the decoded contents of a LAS payload in columnar form.
// X, Y, and Z are always populated and hold real-world coordinates with the
// header's scale and offset applied. GPSTime and Red/Green/Blue are nil when
// the point format does not carry them.
type PointData struct {
	Header Header

	X, Y, Z        []float64
	Intensity      []uint16
	ReturnNumber   []uint8
	Classification []uint8
	GPSTime        []float64
	Red            []uint16
	Green          []uint16
	Blue           []uint16
}

// Count returns the number of decoded points.
func (pd *PointData) Count() int {
	return len(pd.X)
}

// HasRGB reports whether per-point color was decoded.
func (pd *PointData) HasRGB() bool {
	return pd.Red != nil
}

// HasGPSTime reports whether per-point GPS time was decoded.
func (pd *PointData) HasGPSTime() bool {
	return pd.GPSTime != nil
}

// Parse decodes a complete LAS payload. The input buffer is not retained;
// the returned PointData owns all of its slices.
func Parse(buf []byte) (*PointData, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(len(buf)); err != nil {
		return nil, err
	}

	n := int(h.NumberPoints)
	pd := &PointData{
		Header:         h,
		X:              make([]float64, n),
		Y:              make([]float64, n),
		Z:              make([]float64, n),
		Intensity:      make([]uint16, n),
		ReturnNumber:   make([]uint8, n),
		Classification: make([]uint8, n),
	}
	if h.HasGPSTime() {
		pd.GPSTime = make([]float64, n)
	}
	if h.HasRGB() {
		pd.Red = make([]uint16, n)
		pd.Green = make([]uint16, n)
		pd.Blue = make([]uint16, n)
	}

	le := binary.LittleEndian
	stride := int(h.PointRecordLength)
	base := int(h.OffsetToPoints)
	for i := 0; i < n; i++ {
		off := base + i*stride
		pd.X[i] = float64(int32(le.Uint32(buf[off:])))*h.XScaleFactor + h.XOffset
		pd.Y[i] = float64(int32(le.Uint32(buf[off+4:])))*h.YScaleFactor + h.YOffset
		pd.Z[i] = float64(int32(le.Uint32(buf[off+8:])))*h.ZScaleFactor + h.ZOffset
		pd.Intensity[i] = le.Uint16(buf[off+12:])
		pd.ReturnNumber[i] = buf[off+14] & 0x07
		// kept unmasked so codes above 31 survive for palette lookups
		pd.Classification[i] = buf[off+15]

		switch h.PointFormatID {
		case 1:
			pd.GPSTime[i] = math.Float64frombits(le.Uint64(buf[off+20:]))
		case 2:
			pd.Red[i] = le.Uint16(buf[off+20:])
			pd.Green[i] = le.Uint16(buf[off+22:])
			pd.Blue[i] = le.Uint16(buf[off+24:])
		case 3:
			pd.GPSTime[i] = math.Float64frombits(le.Uint64(buf[off+20:]))
			pd.Red[i] = le.Uint16(buf[off+28:])
			pd.Green[i] = le.Uint16(buf[off+30:])
			pd.Blue[i] = le.Uint16(buf[off+32:])
		}
	}
	return pd, nil
}
