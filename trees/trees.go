// Package trees holds the detected tree objects overlaid on point clouds.
// The analysis backend exports them as JSON; this package loads that export
// and indexes it for hit-testing by id.
package trees

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Detected is a single tree produced by the segmentation backend. All fields
// are read-only inputs; measurements are in meters except Biomass (kg).
type Detected struct {
	ID            string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Height        float64 `json:"height"`
	CrownDiameter float64 `json:"crownDiameter"`
	DBH           float64 `json:"dbh"`
	Species       string  `json:"species"`
	Biomass       float64 `json:"biomass"`
}

// Position returns the stem location as a vector.
func (d *Detected) Position() r3.Vector {
	return r3.Vector{X: d.X, Y: d.Y, Z: d.Z}
}

// Index resolves trees by id in O(1) and preserves the input order for
// iteration. Hit-testing goes through the index rather than walking any
// scene structure, so it is rebuilt whenever the tree list changes.
type Index struct {
	byID map[string]*Detected
	all  []Detected
}

// NewIndex copies list and indexes it by id. A duplicated id resolves to its
// last occurrence.
func NewIndex(list []Detected) *Index {
	idx := &Index{
		byID: make(map[string]*Detected, len(list)),
		all:  append([]Detected(nil), list...),
	}
	for i := range idx.all {
		idx.byID[idx.all[i].ID] = &idx.all[i]
	}
	return idx
}

// ByID returns the tree with the given id.
func (idx *Index) ByID(id string) (*Detected, bool) {
	d, ok := idx.byID[id]
	return d, ok
}

// All returns the indexed trees in input order. The slice is shared; callers
// must not mutate it.
func (idx *Index) All() []Detected {
	return idx.all
}

// Len returns the number of indexed trees.
func (idx *Index) Len() int {
	return len(idx.all)
}

// IDs returns the tree ids in input order.
func (idx *Index) IDs() []string {
	return lo.Map(idx.all, func(d Detected, _ int) string { return d.ID })
}

// LoadFile reads a JSON array of detected trees.
func LoadFile(path string) ([]Detected, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading tree list %q", path)
	}
	var list []Detected
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrapf(err, "parsing tree list %q", path)
	}
	return list, nil
}
