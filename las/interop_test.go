package las

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/lidario"
	"go.viam.com/test"
	"go.viam.com/utils"
)

// The interop tests cross-check the in-memory codec against lidario, writing
// with one implementation and reading with the other.

const interopTolerance = 0.0011 // one quantization step plus rounding slack

func TestLidarioReadsEncoded(t *testing.T) {
	pd := testCloud()
	pd.GPSTime = nil // format 2, the layout lidario surfaces RGB for

	buf, err := Encode(pd, DefaultEncodeOptions())
	test.That(t, err, test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "encoded.las")
	test.That(t, os.WriteFile(fn, buf, 0o600), test.ShouldBeNil)

	lf, err := lidario.NewLasFile(fn, "r")
	test.That(t, err, test.ShouldBeNil)
	defer utils.UncheckedErrorFunc(lf.Close)

	test.That(t, lf.Header.NumberPoints, test.ShouldEqual, pd.Count())
	test.That(t, lf.Header.PointFormatID, test.ShouldEqual, 2)
	for i := 0; i < pd.Count(); i++ {
		p, err := lf.LasPoint(i)
		test.That(t, err, test.ShouldBeNil)
		data := p.PointData()
		test.That(t, data.X, test.ShouldAlmostEqual, pd.X[i], interopTolerance)
		test.That(t, data.Y, test.ShouldAlmostEqual, pd.Y[i], interopTolerance)
		test.That(t, data.Z, test.ShouldAlmostEqual, pd.Z[i], interopTolerance)
		test.That(t, p.RgbData(), test.ShouldNotBeNil)
		test.That(t, p.RgbData().Red, test.ShouldEqual, pd.Red[i])
		test.That(t, p.RgbData().Green, test.ShouldEqual, pd.Green[i])
		test.That(t, p.RgbData().Blue, test.ShouldEqual, pd.Blue[i])
	}
}

func TestParseReadsLidarioOutput(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "lidario.las")

	lf, err := lidario.NewLasFile(fn, "w")
	test.That(t, err, test.ShouldBeNil)
	err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 2,
		XScaleFactor:  0.001,
		YScaleFactor:  0.001,
		ZScaleFactor:  0.001,
	})
	test.That(t, err, test.ShouldBeNil)

	want := testCloud()
	for i := 0; i < want.Count(); i++ {
		pr0 := &lidario.PointRecord0{
			X:         want.X[i],
			Y:         want.Y[i],
			Z:         want.Z[i],
			Intensity: want.Intensity[i],
			BitField: lidario.PointBitField{
				Value: want.ReturnNumber[i] | want.ReturnNumber[i]<<3,
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: want.Classification[i],
			},
			ScanAngle:     0,
			UserData:      0,
			PointSourceID: 1,
		}
		err = lf.AddLasPoint(&lidario.PointRecord2{
			PointRecord0: pr0,
			RGB: &lidario.RgbData{
				Red:   want.Red[i],
				Green: want.Green[i],
				Blue:  want.Blue[i],
			},
		})
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, lf.Close(), test.ShouldBeNil)

	buf, err := os.ReadFile(fn)
	test.That(t, err, test.ShouldBeNil)
	got, err := Parse(buf)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, got.Count(), test.ShouldEqual, want.Count())
	test.That(t, got.HasRGB(), test.ShouldBeTrue)
	for i := 0; i < want.Count(); i++ {
		test.That(t, got.X[i], test.ShouldAlmostEqual, want.X[i], interopTolerance)
		test.That(t, got.Y[i], test.ShouldAlmostEqual, want.Y[i], interopTolerance)
		test.That(t, got.Z[i], test.ShouldAlmostEqual, want.Z[i], interopTolerance)
		test.That(t, got.Intensity[i], test.ShouldEqual, want.Intensity[i])
		test.That(t, got.ReturnNumber[i], test.ShouldEqual, want.ReturnNumber[i])
		test.That(t, got.Classification[i], test.ShouldEqual, want.Classification[i])
		test.That(t, got.Red[i], test.ShouldEqual, want.Red[i])
		test.That(t, got.Green[i], test.ShouldEqual, want.Green[i])
		test.That(t, got.Blue[i], test.ShouldEqual, want.Blue[i])
	}
}
