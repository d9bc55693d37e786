package las

import (
	"encoding/binary"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// EncodeOptions controls LAS serialization. The zero value encodes with a
// millimeter scale and a zero offset; set DeriveOffset to anchor the offset
// at the minimum corner of the data instead, which keeps quantization error
// small for clouds far from the origin (typical for projected coordinates).
type EncodeOptions struct {
	Scale        r3.Vector
	Offset       r3.Vector
	DeriveOffset bool

	SystemID           string
	GeneratingSoftware string
	FileCreationDay    uint16
	FileCreationYear   uint16
}

// DefaultEncodeOptions returns the options used by the command line tools:
// millimeter precision with the offset derived from the data.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Scale:        r3.Vector{X: 0.001, Y: 0.001, Z: 0.001},
		DeriveOffset: true,
	}
}

// Encode serializes pd as a LAS 1.2 payload. The point format is chosen from
// the populated columns: GPS time and RGB each upgrade the format so no
// attribute present in pd is dropped. Coordinates are quantized to the
// configured scale; header bounds are computed from the quantized values so
// that re-parsing the output reproduces them exactly.
func Encode(pd *PointData, opts EncodeOptions) ([]byte, error) {
	n := pd.Count()
	if err := checkColumns(pd, n); err != nil {
		return nil, err
	}

	var format uint8
	switch {
	case pd.HasGPSTime() && pd.HasRGB():
		format = 3
	case pd.HasRGB():
		format = 2
	case pd.HasGPSTime():
		format = 1
	}
	recLen := minRecordLengths[format]

	scale := opts.Scale
	if scale.X <= 0 {
		scale.X = 0.001
	}
	if scale.Y <= 0 {
		scale.Y = 0.001
	}
	if scale.Z <= 0 {
		scale.Z = 0.001
	}
	offset := opts.Offset
	if opts.DeriveOffset && n > 0 {
		offset = r3.Vector{X: pd.X[0], Y: pd.Y[0], Z: pd.Z[0]}
		for i := 1; i < n; i++ {
			offset.X = math.Min(offset.X, pd.X[i])
			offset.Y = math.Min(offset.Y, pd.Y[i])
			offset.Z = math.Min(offset.Z, pd.Z[i])
		}
	}

	buf := make([]byte, coreHeaderSize+n*int(recLen))
	le := binary.LittleEndian

	var byReturn [5]uint32
	var minX, maxX, minY, maxY, minZ, maxZ float64
	for i := 0; i < n; i++ {
		off := coreHeaderSize + i*int(recLen)

		rawX, err := quantize(pd.X[i], scale.X, offset.X)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d x", i)
		}
		rawY, err := quantize(pd.Y[i], scale.Y, offset.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d y", i)
		}
		rawZ, err := quantize(pd.Z[i], scale.Z, offset.Z)
		if err != nil {
			return nil, errors.Wrapf(err, "point %d z", i)
		}
		le.PutUint32(buf[off:], uint32(rawX))
		le.PutUint32(buf[off+4:], uint32(rawY))
		le.PutUint32(buf[off+8:], uint32(rawZ))

		x := float64(rawX)*scale.X + offset.X
		y := float64(rawY)*scale.Y + offset.Y
		z := float64(rawZ)*scale.Z + offset.Z
		if i == 0 {
			minX, maxX, minY, maxY, minZ, maxZ = x, x, y, y, z, z
		} else {
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
		}

		if pd.Intensity != nil {
			le.PutUint16(buf[off+12:], pd.Intensity[i])
		}
		rn := uint8(1)
		if pd.ReturnNumber != nil && pd.ReturnNumber[i] > 0 {
			rn = pd.ReturnNumber[i] & 0x07
		}
		buf[off+14] = rn | rn<<3
		if rn >= 1 && rn <= 5 {
			byReturn[rn-1]++
		}
		if pd.Classification != nil {
			buf[off+15] = pd.Classification[i]
		}
		// scan angle and user data stay zero
		le.PutUint16(buf[off+18:], 1) // point source ID

		switch format {
		case 1:
			le.PutUint64(buf[off+20:], math.Float64bits(pd.GPSTime[i]))
		case 2:
			le.PutUint16(buf[off+20:], pd.Red[i])
			le.PutUint16(buf[off+22:], pd.Green[i])
			le.PutUint16(buf[off+24:], pd.Blue[i])
		case 3:
			le.PutUint64(buf[off+20:], math.Float64bits(pd.GPSTime[i]))
			le.PutUint16(buf[off+28:], pd.Red[i])
			le.PutUint16(buf[off+30:], pd.Green[i])
			le.PutUint16(buf[off+32:], pd.Blue[i])
		}
	}

	copy(buf[0:4], fileSignature)
	buf[24] = 1 // version 1.2
	buf[25] = 2
	putPadded(buf[26:58], opts.SystemID, "lidarview")
	putPadded(buf[58:90], opts.GeneratingSoftware, "treescape lidarview")
	le.PutUint16(buf[90:], opts.FileCreationDay)
	le.PutUint16(buf[92:], opts.FileCreationYear)
	le.PutUint16(buf[94:], coreHeaderSize)
	le.PutUint32(buf[96:], coreHeaderSize)
	buf[104] = format
	le.PutUint16(buf[105:], recLen)
	le.PutUint32(buf[107:], uint32(n))
	for i, c := range byReturn {
		le.PutUint32(buf[111+4*i:], c)
	}
	putF64(buf[131:], scale.X)
	putF64(buf[139:], scale.Y)
	putF64(buf[147:], scale.Z)
	putF64(buf[155:], offset.X)
	putF64(buf[163:], offset.Y)
	putF64(buf[171:], offset.Z)
	putF64(buf[179:], maxX)
	putF64(buf[187:], minX)
	putF64(buf[195:], maxY)
	putF64(buf[203:], minY)
	putF64(buf[211:], maxZ)
	putF64(buf[219:], minZ)
	return buf, nil
}

func checkColumns(pd *PointData, n int) error {
	if n > 0 && (pd.Y == nil || pd.Z == nil) {
		return errors.New("x, y and z columns must all be set")
	}
	cols := map[string]int{
		"y": len(pd.Y),
		"z": len(pd.Z),
	}
	if pd.Intensity != nil {
		cols["intensity"] = len(pd.Intensity)
	}
	if pd.ReturnNumber != nil {
		cols["return number"] = len(pd.ReturnNumber)
	}
	if pd.Classification != nil {
		cols["classification"] = len(pd.Classification)
	}
	if pd.GPSTime != nil {
		cols["gps time"] = len(pd.GPSTime)
	}
	rgb := 0
	for name, col := range map[string][]uint16{"red": pd.Red, "green": pd.Green, "blue": pd.Blue} {
		if col != nil {
			cols[name] = len(col)
			rgb++
		}
	}
	if rgb != 0 && rgb != 3 {
		return errors.New("red, green and blue columns must be set together")
	}
	for name, l := range cols {
		if l != n {
			return errors.Errorf("%s column has %d entries, want %d", name, l, n)
		}
	}
	return nil
}

func quantize(v, scale, offset float64) (int32, error) {
	r := math.Round((v - offset) / scale)
	if r < math.MinInt32 || r > math.MaxInt32 || math.IsNaN(r) {
		return 0, errors.Errorf("coordinate %f does not fit int32 at scale %g offset %g", v, scale, offset)
	}
	return int32(r), nil
}

func putF64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

func putPadded(dst []byte, s, fallback string) {
	if s == "" {
		s = fallback
	}
	copy(dst, s)
}
