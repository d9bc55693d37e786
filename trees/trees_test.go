package trees

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func sampleTrees() []Detected {
	return []Detected{
		{ID: "t-001", X: 10, Y: 20, Z: 100, Height: 22.5, CrownDiameter: 6, Species: "picea abies"},
		{ID: "t-002", X: 14, Y: 25, Z: 101, Height: 18.1, CrownDiameter: 4.5, Species: "pinus sylvestris"},
		{ID: "t-003", X: 30, Y: 40, Z: 99, Height: 25.0, CrownDiameter: 7.2, Species: "picea abies"},
	}
}

func TestIndex(t *testing.T) {
	list := sampleTrees()
	idx := NewIndex(list)

	test.That(t, idx.Len(), test.ShouldEqual, 3)
	test.That(t, idx.IDs(), test.ShouldResemble, []string{"t-001", "t-002", "t-003"})

	d, ok := idx.ByID("t-002")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Species, test.ShouldEqual, "pinus sylvestris")
	test.That(t, d.Position(), test.ShouldResemble, r3.Vector{X: 14, Y: 25, Z: 101})

	_, ok = idx.ByID("t-999")
	test.That(t, ok, test.ShouldBeFalse)

	// the index owns a copy of the input
	list[0].Species = "mutated"
	d, ok = idx.ByID("t-001")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Species, test.ShouldEqual, "picea abies")
}

func TestIndexDuplicateID(t *testing.T) {
	idx := NewIndex([]Detected{
		{ID: "t-001", Height: 10},
		{ID: "t-001", Height: 20},
	})
	d, ok := idx.ByID("t-001")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Height, test.ShouldEqual, 20.0)
	test.That(t, idx.Len(), test.ShouldEqual, 2)
}

func TestLoadFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "trees.json")
	payload := `[
		{"id": "t-101", "x": 1.5, "y": 2.5, "z": 3.5, "height": 21.0,
		 "crownDiameter": 5.5, "dbh": 0.42, "species": "betula pendula", "biomass": 812.5}
	]`
	test.That(t, os.WriteFile(fn, []byte(payload), 0o600), test.ShouldBeNil)

	list, err := LoadFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, list, test.ShouldHaveLength, 1)
	test.That(t, list[0].ID, test.ShouldEqual, "t-101")
	test.That(t, list[0].CrownDiameter, test.ShouldEqual, 5.5)
	test.That(t, list[0].Biomass, test.ShouldEqual, 812.5)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "reading tree list")

	fn := filepath.Join(t.TempDir(), "bad.json")
	test.That(t, os.WriteFile(fn, []byte("{not json"), 0o600), test.ShouldBeNil)
	_, err = LoadFile(fn)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parsing tree list")
}
