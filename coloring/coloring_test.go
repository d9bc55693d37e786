package coloring

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/treescape/lidarview/pointcloud"
)

func cloudWithZ(t *testing.T, zs ...float64) *pointcloud.Data {
	t.Helper()
	d := &pointcloud.Data{
		Positions: make([]float32, 3*len(zs)),
		Count:     len(zs),
		Bounds:    pointcloud.NewBounds(),
	}
	for i, z := range zs {
		d.Positions[3*i+2] = float32(z)
		d.Bounds.Merge(r3.Vector{Z: float64(float32(z))})
	}
	return d
}

func TestColorizeHeight(t *testing.T) {
	d := cloudWithZ(t, 0, 25, 50, 100)
	out, err := Colorize(d, Height)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldHaveLength, 12)

	// stops land exactly on the configured colors
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 0x2c/255.0, 1e-6)
	test.That(t, float64(out[1]), test.ShouldAlmostEqual, 0x7b/255.0, 1e-6)
	test.That(t, float64(out[2]), test.ShouldAlmostEqual, 0xb6/255.0, 1e-6)

	test.That(t, float64(out[3]), test.ShouldAlmostEqual, 0xab/255.0, 1e-6)
	test.That(t, float64(out[6]), test.ShouldAlmostEqual, 0xff/255.0, 1e-6)

	test.That(t, float64(out[9]), test.ShouldAlmostEqual, 0xd7/255.0, 1e-6)
	test.That(t, float64(out[11]), test.ShouldAlmostEqual, 0x1c/255.0, 1e-6)
}

func TestColorizeHeightBlends(t *testing.T) {
	// 12.5 sits halfway between stops 0 and 1
	d := cloudWithZ(t, 0, 12.5, 100)
	out, err := Colorize(d, Height)
	test.That(t, err, test.ShouldBeNil)

	wantR := (0x2c/255.0 + 0xab/255.0) / 2
	wantG := (0x7b/255.0 + 0xd9/255.0) / 2
	wantB := (0xb6/255.0 + 0xe9/255.0) / 2
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, wantR, 1e-6)
	test.That(t, float64(out[4]), test.ShouldAlmostEqual, wantG, 1e-6)
	test.That(t, float64(out[5]), test.ShouldAlmostEqual, wantB, 1e-6)
}

func TestColorizeHeightDegenerate(t *testing.T) {
	d := cloudWithZ(t, 42, 42, 42)
	out, err := Colorize(d, Height)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < d.Count; i++ {
		test.That(t, float64(out[3*i]), test.ShouldAlmostEqual, 0x2c/255.0, 1e-6)
	}
}

func TestColorizeDeterministicAndFresh(t *testing.T) {
	d := cloudWithZ(t, 0, 10, 20, 30)
	first, err := Colorize(d, Height)
	test.That(t, err, test.ShouldBeNil)
	second, err := Colorize(d, Height)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldResemble, second)

	// each call returns its own buffer and never touches the cloud
	first[0] = 99
	test.That(t, second[0], test.ShouldNotEqual, float32(99))
	test.That(t, d.Colors, test.ShouldBeNil)
}

func TestColorizeIntensity(t *testing.T) {
	d := cloudWithZ(t, 0, 0, 0)
	d.Intensity = []uint16{0, 32768, 65535}

	out, err := Colorize(d, Intensity)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, 0.5, 1e-3)
	test.That(t, float64(out[6]), test.ShouldAlmostEqual, 1, 1e-6)

	// grayscale means equal channels
	test.That(t, out[3], test.ShouldEqual, out[4])
	test.That(t, out[3], test.ShouldEqual, out[5])
}

func TestColorizeIntensityRange(t *testing.T) {
	d := cloudWithZ(t, 0, 0, 0)
	d.Intensity = []uint16{500, 1500, 3000}

	out, err := Colorize(d, Intensity, WithIntensityRange(1000, 2000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, 0.5, 1e-6)
	test.That(t, float64(out[6]), test.ShouldAlmostEqual, 1, 1e-6)
}

func TestColorizeIntensityMissing(t *testing.T) {
	d := cloudWithZ(t, 0, 0)
	out, err := Colorize(d, Intensity)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < d.Count; i++ {
		test.That(t, float64(out[3*i]), test.ShouldAlmostEqual, 0x80/255.0, 1e-6)
	}
}

func TestColorizeClassification(t *testing.T) {
	d := cloudWithZ(t, 0, 0, 0, 0)
	d.Classification = []uint8{2, 42, 70, 200}

	out, err := Colorize(d, Classification)
	test.That(t, err, test.ShouldBeNil)

	// ground gets its palette entry
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 0x8d/255.0, 1e-6)
	test.That(t, float64(out[1]), test.ShouldAlmostEqual, 0x6e/255.0, 1e-6)

	// unknown standard-range code falls back to gray
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, 0x80/255.0, 1e-6)

	// 70 and 200 share a rotating palette slot: (code-64) mod 10 == 6
	test.That(t, out[6], test.ShouldEqual, out[9])
	test.That(t, out[7], test.ShouldEqual, out[10])
	test.That(t, out[8], test.ShouldEqual, out[11])
	test.That(t, float64(out[6]), test.ShouldAlmostEqual, rotatingPalette[6].R, 1e-6)
}

func TestColorizeClassificationOverride(t *testing.T) {
	d := cloudWithZ(t, 0, 0)
	d.Classification = []uint8{200, 70}

	out, err := Colorize(d, Classification, WithOverrides(map[uint8]RGBColor{
		200: {R: 1, G: 0, B: 1},
	}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0], test.ShouldEqual, float32(1))
	test.That(t, out[1], test.ShouldEqual, float32(0))
	test.That(t, out[2], test.ShouldEqual, float32(1))
	// unoverridden user class keeps its rotating slot
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, rotatingPalette[6].R, 1e-6)
}

func TestColorizeClassificationMissing(t *testing.T) {
	d := cloudWithZ(t, 0)
	out, err := Colorize(d, Classification, WithDefaultColor(RGBColor{R: 0.25, G: 0.5, B: 0.75}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0], test.ShouldEqual, float32(0.25))
	test.That(t, out[1], test.ShouldEqual, float32(0.5))
	test.That(t, out[2], test.ShouldEqual, float32(0.75))
}

func TestColorizeRGB16Bit(t *testing.T) {
	d := cloudWithZ(t, 0, 0)
	d.Red = []uint16{65535, 32768}
	d.Green = []uint16{0, 32768}
	d.Blue = []uint16{255, 32768}

	out, err := Colorize(d, RGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, float64(out[1]), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(out[2]), test.ShouldAlmostEqual, 255.0/65535.0, 1e-6)
}

func TestColorizeRGB8BitPayload(t *testing.T) {
	d := cloudWithZ(t, 0, 0)
	d.Red = []uint16{255, 128}
	d.Green = []uint16{0, 128}
	d.Blue = []uint16{10, 128}

	out, err := Colorize(d, RGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, float64(out[3]), test.ShouldAlmostEqual, 128.0/255.0, 1e-6)
}

func TestColorizeRGBMissing(t *testing.T) {
	d := cloudWithZ(t, 0)
	out, err := Colorize(d, RGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, float64(out[0]), test.ShouldAlmostEqual, 0x80/255.0, 1e-6)
}

func TestColorizeOptionErrors(t *testing.T) {
	d := cloudWithZ(t, 0)

	_, err := Colorize(d, Height, WithGradient([]GradientStop{{0, mustHex("#000000")}}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "two stops")

	_, err = Colorize(d, Height, WithGradient([]GradientStop{
		{0.8, mustHex("#000000")},
		{0.2, mustHex("#ffffff")},
	}))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "out of order")

	_, err = Colorize(d, Intensity, WithIntensityRange(100, 100))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "intensity range")

	_, err = Colorize(d, Policy(99))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown color policy")
}

func TestParsePolicy(t *testing.T) {
	for s, want := range map[string]Policy{
		"height":         Height,
		"Intensity":      Intensity,
		"classification": Classification,
		"class":          Classification,
		"rgb":            RGB,
		" RGB ":          RGB,
	} {
		got, err := ParsePolicy(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}

	_, err := ParsePolicy("thermal")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, Classification.String(), test.ShouldEqual, "classification")
	test.That(t, Policy(99).String(), test.ShouldEqual, "unknown")
}

func TestAutoIntensityRange(t *testing.T) {
	d := cloudWithZ(t, 0)
	d.Intensity = make([]uint16, 1000)
	d.Positions = make([]float32, 3000)
	d.Count = 1000
	for i := range d.Intensity {
		d.Intensity[i] = uint16(i)
	}
	lo, hi := AutoIntensityRange(d)
	test.That(t, lo, test.ShouldAlmostEqual, 19, 2)
	test.That(t, hi, test.ShouldAlmostEqual, 979, 2)

	empty := cloudWithZ(t)
	lo, hi = AutoIntensityRange(empty)
	test.That(t, lo, test.ShouldEqual, 0)
	test.That(t, hi, test.ShouldEqual, 65535)

	flat := cloudWithZ(t, 0, 0)
	flat.Intensity = []uint16{500, 500}
	lo, hi = AutoIntensityRange(flat)
	test.That(t, lo, test.ShouldEqual, 500)
	test.That(t, hi, test.ShouldEqual, 501)
}

func TestHexRGB(t *testing.T) {
	c, err := HexRGB("#ff0080")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.R, test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, c.G, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, c.B, test.ShouldAlmostEqual, 0x80/255.0, 1e-6)

	_, err = HexRGB("not-a-color")
	test.That(t, err, test.ShouldNotBeNil)
}
