// Package las reads and writes ASPRS LAS point cloud data in memory.
//
// The reader operates on caller-owned byte slices rather than file handles so
// payloads arriving over HTTP can be decoded without touching disk. LAS 1.0
// through 1.4 headers are accepted; point record formats 0 through 3 are
// supported, covering position, intensity, return counts, classification,
// GPS time, and RGB color.
package las

import (
	"encoding/binary"
	"math"
)

const (
	fileSignature = "LASF"

	// coreHeaderSize is the size of the LAS 1.2 public header block. Later
	// minor versions only ever append fields, so every supported file has at
	// least this many header bytes.
	coreHeaderSize = 227
)

// minRecordLengths holds the smallest legal point record length for each
// supported point data format. Files may declare longer records carrying
// extra bytes, which the reader skips.
var minRecordLengths = [4]uint16{20, 28, 26, 34}

// Header is the decoded public header block of a LAS file.
type Header struct {
	FileSourceID       uint16
	GlobalEncoding     uint16
	VersionMajor       uint8
	VersionMinor       uint8
	SystemID           string
	GeneratingSoftware string
	FileCreationDay    uint16
	FileCreationYear   uint16
	HeaderSize         uint16
	OffsetToPoints     uint32
	NumberOfVLRs       uint32
	PointFormatID      uint8
	PointRecordLength  uint16
	NumberPoints       uint32
	NumberPointsByReturn [5]uint32

	XScaleFactor, YScaleFactor, ZScaleFactor float64
	XOffset, YOffset, ZOffset                float64
	MaxX, MinX                               float64
	MaxY, MinY                               float64
	MaxZ, MinZ                               float64
}

// HasGPSTime reports whether the declared point format carries a GPS
// timestamp per record.
func (h *Header) HasGPSTime() bool {
	return h.PointFormatID == 1 || h.PointFormatID == 3
}

// HasRGB reports whether the declared point format carries 16-bit RGB color
// per record.
func (h *Header) HasRGB() bool {
	return h.PointFormatID == 2 || h.PointFormatID == 3
}

// ParseHeader decodes the public header block from buf. It verifies the file
// signature and version but not the point record extents; call Validate with
// the full buffer length before iterating records.
func ParseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < coreHeaderSize {
		return h, newFormatErrorf("truncated header: %d bytes, need at least %d", len(buf), coreHeaderSize)
	}
	if string(buf[0:4]) != fileSignature {
		return h, newFormatErrorf("bad file signature %q", string(buf[0:4]))
	}

	le := binary.LittleEndian
	h.FileSourceID = le.Uint16(buf[4:])
	h.GlobalEncoding = le.Uint16(buf[6:])
	// bytes 8:24 hold the project GUID, which nothing downstream consumes
	h.VersionMajor = buf[24]
	h.VersionMinor = buf[25]
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return h, newFormatErrorf("unsupported version %d.%d", h.VersionMajor, h.VersionMinor)
	}
	h.SystemID = trimPadded(buf[26:58])
	h.GeneratingSoftware = trimPadded(buf[58:90])
	h.FileCreationDay = le.Uint16(buf[90:])
	h.FileCreationYear = le.Uint16(buf[92:])
	h.HeaderSize = le.Uint16(buf[94:])
	if h.HeaderSize < coreHeaderSize {
		return h, newFormatErrorf("declared header size %d smaller than core header %d", h.HeaderSize, coreHeaderSize)
	}
	h.OffsetToPoints = le.Uint32(buf[96:])
	h.NumberOfVLRs = le.Uint32(buf[100:])
	h.PointFormatID = buf[104]
	h.PointRecordLength = le.Uint16(buf[105:])
	h.NumberPoints = le.Uint32(buf[107:])
	for i := 0; i < 5; i++ {
		h.NumberPointsByReturn[i] = le.Uint32(buf[111+4*i:])
	}
	h.XScaleFactor = f64(buf[131:])
	h.YScaleFactor = f64(buf[139:])
	h.ZScaleFactor = f64(buf[147:])
	h.XOffset = f64(buf[155:])
	h.YOffset = f64(buf[163:])
	h.ZOffset = f64(buf[171:])
	h.MaxX = f64(buf[179:])
	h.MinX = f64(buf[187:])
	h.MaxY = f64(buf[195:])
	h.MinY = f64(buf[203:])
	h.MaxZ = f64(buf[211:])
	h.MinZ = f64(buf[219:])
	return h, nil
}

// Validate checks that the header's point record declaration is supported and
// that all records fall inside a buffer of bufLen bytes.
func (h *Header) Validate(bufLen int) error {
	if int(h.PointFormatID) >= len(minRecordLengths) {
		return newFormatErrorf("unsupported point data format %d", h.PointFormatID)
	}
	if minLen := minRecordLengths[h.PointFormatID]; h.PointRecordLength < minLen {
		return newFormatErrorf("record length %d below minimum %d for format %d",
			h.PointRecordLength, minLen, h.PointFormatID)
	}
	if h.OffsetToPoints < uint32(h.HeaderSize) {
		return newFormatErrorf("point data offset %d inside header of size %d", h.OffsetToPoints, h.HeaderSize)
	}
	// 64-bit arithmetic so a hostile count cannot wrap the bounds check
	end := uint64(h.OffsetToPoints) + uint64(h.NumberPoints)*uint64(h.PointRecordLength)
	if end > uint64(bufLen) {
		return newFormatErrorf("point records end at byte %d, buffer has %d", end, bufLen)
	}
	return nil
}

func f64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func trimPadded(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end])
}
