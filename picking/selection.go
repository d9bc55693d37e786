package picking

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/treescape/lidarview/trees"
)

// Mode names the active selection gesture.
type Mode int

// Selection modes.
const (
	ModeSingle Mode = iota
	ModeBox
	ModeLasso
)

// String returns a human readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeBox:
		return "box"
	case ModeLasso:
		return "lasso"
	default:
		return "unknown"
	}
}

// SelectionState tracks which trees and raw points the user currently has
// selected. It is owned by a single goroutine, the one driving the viewer
// event loop, and is not safe for concurrent use.
type SelectionState struct {
	objects    mapset.Set[string]
	points     mapset.Set[int]
	mode       Mode
	inProgress bool
}

// NewSelectionState returns an empty selection in single pick mode.
func NewSelectionState() *SelectionState {
	return &SelectionState{
		objects: mapset.NewThreadUnsafeSet[string](),
		points:  mapset.NewThreadUnsafeSet[int](),
	}
}

// Mode returns the active selection mode.
func (s *SelectionState) Mode() Mode { return s.mode }

// SetMode switches the gesture mode. The current selection is kept, so a
// user can single-pick a tree and then grow the selection with a box.
func (s *SelectionState) SetMode(m Mode) { s.mode = m }

// BeginGesture marks a drag as started.
func (s *SelectionState) BeginGesture() { s.inProgress = true }

// EndGesture marks the drag as finished.
func (s *SelectionState) EndGesture() { s.inProgress = false }

// InProgress reports whether a drag gesture is underway.
func (s *SelectionState) InProgress() bool { return s.inProgress }

// ApplyPick records a single-click result. A hit replaces the object
// selection with that one tree; a miss, hit == nil, clears it. The point
// selection is untouched either way.
func (s *SelectionState) ApplyPick(hit *trees.Detected) {
	s.objects.Clear()
	if hit != nil {
		s.objects.Add(hit.ID)
	}
}

// ApplyBox records a box selection result. When additive is true the hits
// join the existing object selection, otherwise they replace it. An empty
// hit list with additive set is a no-op, so a stray empty drag cannot wipe
// a selection built up across several boxes.
func (s *SelectionState) ApplyBox(hits []*trees.Detected, additive bool) {
	if !additive {
		s.objects.Clear()
	}
	for _, tr := range hits {
		s.objects.Add(tr.ID)
	}
}

// ApplyPointPick records a raw point pick. A negative index is a miss: it
// clears the point selection unless additive is set. Hits replace the point
// selection or, when additive, join it.
func (s *SelectionState) ApplyPointPick(index int, additive bool) {
	if index < 0 {
		if !additive {
			s.points.Clear()
		}
		return
	}
	if !additive {
		s.points.Clear()
	}
	s.points.Add(index)
}

// Clear empties both the object and point selections. The mode is kept.
func (s *SelectionState) Clear() {
	s.objects.Clear()
	s.points.Clear()
}

// HasObject reports whether the tree with the given id is selected.
func (s *SelectionState) HasObject(id string) bool { return s.objects.Contains(id) }

// HasPoint reports whether the point index is selected.
func (s *SelectionState) HasPoint(i int) bool { return s.points.Contains(i) }

// ObjectCount returns the number of selected trees.
func (s *SelectionState) ObjectCount() int { return s.objects.Cardinality() }

// PointCount returns the number of selected points.
func (s *SelectionState) PointCount() int { return s.points.Cardinality() }

// Objects returns the selected tree ids in sorted order.
func (s *SelectionState) Objects() []string {
	ids := s.objects.ToSlice()
	sort.Strings(ids)
	return ids
}

// Points returns the selected point indices in ascending order.
func (s *SelectionState) Points() []int {
	idx := s.points.ToSlice()
	sort.Ints(idx)
	return idx
}
