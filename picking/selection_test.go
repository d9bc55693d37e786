package picking

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/treescape/lidarview/trees"
)

func TestSelectionStateFresh(t *testing.T) {
	s := NewSelectionState()
	test.That(t, s.Mode(), test.ShouldEqual, ModeSingle)
	test.That(t, s.ObjectCount(), test.ShouldEqual, 0)
	test.That(t, s.PointCount(), test.ShouldEqual, 0)
	test.That(t, s.InProgress(), test.ShouldBeFalse)
}

func TestSelectionModeString(t *testing.T) {
	test.That(t, ModeSingle.String(), test.ShouldEqual, "single")
	test.That(t, ModeBox.String(), test.ShouldEqual, "box")
	test.That(t, ModeLasso.String(), test.ShouldEqual, "lasso")
	test.That(t, Mode(42).String(), test.ShouldEqual, "unknown")
}

func TestApplyPick(t *testing.T) {
	s := NewSelectionState()
	a := &trees.Detected{ID: "t-a"}
	b := &trees.Detected{ID: "t-b"}

	s.ApplyPick(a)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-a"})

	// A new pick replaces the old one.
	s.ApplyPick(b)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-b"})
	test.That(t, s.HasObject("t-a"), test.ShouldBeFalse)

	// A miss clears the selection.
	s.ApplyPick(nil)
	test.That(t, s.ObjectCount(), test.ShouldEqual, 0)
}

func TestApplyBox(t *testing.T) {
	s := NewSelectionState()
	a := &trees.Detected{ID: "t-a"}
	b := &trees.Detected{ID: "t-b"}
	c := &trees.Detected{ID: "t-c"}

	s.ApplyBox([]*trees.Detected{a, b}, false)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-a", "t-b"})

	s.ApplyBox([]*trees.Detected{c}, false)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-c"})

	s.ApplyBox([]*trees.Detected{a, b}, false)
	s.ApplyBox([]*trees.Detected{b, c}, true)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-a", "t-b", "t-c"})

	// An empty additive box keeps what is there.
	s.ApplyBox(nil, true)
	test.That(t, s.ObjectCount(), test.ShouldEqual, 3)

	s.ApplyBox(nil, false)
	test.That(t, s.ObjectCount(), test.ShouldEqual, 0)
}

func TestBoxSelectionFlow(t *testing.T) {
	cam := testCamera(t)
	idx := boxIndex(t, cam)
	s := NewSelectionState()
	s.SetMode(ModeBox)

	s.BeginGesture()
	hits := PickBox(r2.Point{}, r2.Point{X: 60, Y: 60}, cam, idx)
	s.ApplyBox(hits, false)
	s.EndGesture()
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-mid", "t-near"})

	// A second, additive box grows the selection.
	hits = PickBox(r2.Point{X: 150, Y: 150}, r2.Point{X: 250, Y: 250}, cam, idx)
	s.ApplyBox(hits, true)
	test.That(t, s.Objects(), test.ShouldResemble, []string{"t-far", "t-mid", "t-near"})
}

func TestApplyPointPick(t *testing.T) {
	s := NewSelectionState()

	s.ApplyPointPick(3, false)
	test.That(t, s.Points(), test.ShouldResemble, []int{3})

	s.ApplyPointPick(5, true)
	test.That(t, s.Points(), test.ShouldResemble, []int{3, 5})

	s.ApplyPointPick(7, false)
	test.That(t, s.Points(), test.ShouldResemble, []int{7})

	s.ApplyPointPick(-1, true)
	test.That(t, s.Points(), test.ShouldResemble, []int{7})

	s.ApplyPointPick(-1, false)
	test.That(t, s.PointCount(), test.ShouldEqual, 0)
}

func TestSelectionModeAndClear(t *testing.T) {
	s := NewSelectionState()
	s.ApplyPick(&trees.Detected{ID: "t-a"})
	s.ApplyPointPick(2, false)

	// Switching modes keeps the selection.
	s.SetMode(ModeBox)
	test.That(t, s.Mode(), test.ShouldEqual, ModeBox)
	test.That(t, s.HasObject("t-a"), test.ShouldBeTrue)
	test.That(t, s.HasPoint(2), test.ShouldBeTrue)

	s.Clear()
	test.That(t, s.ObjectCount(), test.ShouldEqual, 0)
	test.That(t, s.PointCount(), test.ShouldEqual, 0)
	test.That(t, s.Mode(), test.ShouldEqual, ModeBox)
}

func TestSelectionGestureFlags(t *testing.T) {
	s := NewSelectionState()
	s.BeginGesture()
	test.That(t, s.InProgress(), test.ShouldBeTrue)
	s.EndGesture()
	test.That(t, s.InProgress(), test.ShouldBeFalse)
}
