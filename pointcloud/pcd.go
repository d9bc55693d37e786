package pointcloud

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

// PCDType is the data layout of an exported PCD file.
type PCDType int

const (
	// PCDAscii writes one whitespace separated line per point.
	PCDAscii PCDType = iota
	// PCDBinary writes packed little-endian records.
	PCDBinary
)

// ToPCD exports the cloud in PCL's PCD format, with an rgb field when the
// cloud has been colorized. Coordinates are written as float32 exactly as
// buffered.
func (d *Data) ToPCD(out io.Writer, outputType PCDType) error {
	var err error
	if _, err = fmt.Fprintf(out, "VERSION .7\n"); err != nil {
		return err
	}
	if d.HasColor() {
		_, err = fmt.Fprintf(out, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(out, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(out, "WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n", d.Count, d.Count); err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		if _, err = fmt.Fprintf(out, "DATA binary\n"); err != nil {
			return err
		}
	case PCDAscii:
		if _, err = fmt.Fprintf(out, "DATA ascii\n"); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown PCD output type %d", outputType)
	}
	return d.writePCDData(out, outputType)
}

func (d *Data) writePCDData(out io.Writer, outputType PCDType) error {
	hasColor := d.HasColor()
	for i := 0; i < d.Count; i++ {
		x := d.Positions[3*i]
		y := d.Positions[3*i+1]
		z := d.Positions[3*i+2]

		var err error
		if hasColor {
			c := d.pcdColorInt(i)
			switch outputType {
			case PCDBinary:
				buf := make([]byte, 16)
				binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
				binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(y))
				binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(z))
				binary.LittleEndian.PutUint32(buf[12:], uint32(c))
				_, err = out.Write(buf)
			case PCDAscii:
				_, err = fmt.Fprintf(out, "%f %f %f %d\n", x, y, z, c)
			}
		} else {
			switch outputType {
			case PCDBinary:
				buf := make([]byte, 12)
				binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
				binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(y))
				binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(z))
				_, err = out.Write(buf)
			case PCDAscii:
				_, err = fmt.Fprintf(out, "%f %f %f\n", x, y, z)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// pcdColorInt packs the normalized color of point i into PCL's packed
// 0x00RRGGBB integer layout.
func (d *Data) pcdColorInt(i int) int {
	to255 := func(v float32) int {
		c := int(math.Round(float64(v) * 255))
		if c < 0 {
			return 0
		}
		if c > 255 {
			return 255
		}
		return c
	}
	x := 0
	x |= to255(d.Colors[3*i]) << 16
	x |= to255(d.Colors[3*i+1]) << 8
	x |= to255(d.Colors[3*i+2])
	return x
}
