package picking

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/treescape/lidarview/pointcloud"
	"github.com/treescape/lidarview/trees"
)

// defaultPickRadius stands in for the crown when a detected tree carries no
// crown measurement.
const defaultPickRadius = 1.5

// defaultPointPickDist bounds how far from the ray a raw point may sit and
// still be picked.
const defaultPointPickDist = 0.1

// Pick casts a ray through the clicked pixel and returns the nearest tree
// whose crown the ray passes through. Each tree is treated as a sphere of
// half its crown diameter centered on its position. Trees behind the camera
// never match.
func Pick(click r2.Point, cam *Camera, idx *trees.Index) (*trees.Detected, bool) {
	ray := cam.ScreenRay(click)
	var best *trees.Detected
	bestT := math.MaxFloat64
	all := idx.All()
	for i := range all {
		tr := &all[i]
		radius := tr.CrownDiameter / 2
		if radius <= 0 {
			radius = defaultPickRadius
		}
		t := ray.ClosestParam(tr.Position())
		if t <= 0 {
			continue
		}
		if ray.DistanceTo(tr.Position()) > radius {
			continue
		}
		if t < bestT {
			bestT = t
			best = tr
		}
	}
	return best, best != nil
}

// PickBox returns every tree whose projected position falls inside the
// screen-space rectangle spanned by two corners, in index order. The corners
// may be given in any order and the bounds are inclusive. A degenerate
// rectangle with zero width and height selects nothing, so a click that was
// promoted to a drag by accident stays harmless.
func PickBox(start, end r2.Point, cam *Camera, idx *trees.Index) []*trees.Detected {
	if start.X == end.X && start.Y == end.Y {
		return nil
	}
	minX, maxX := math.Min(start.X, end.X), math.Max(start.X, end.X)
	minY, maxY := math.Min(start.Y, end.Y), math.Max(start.Y, end.Y)
	var hits []*trees.Detected
	all := idx.All()
	for i := range all {
		tr := &all[i]
		sp, ok := cam.WorldToScreen(tr.Position())
		if !ok {
			continue
		}
		if sp.X >= minX && sp.X <= maxX && sp.Y >= minY && sp.Y <= maxY {
			hits = append(hits, tr)
		}
	}
	return hits
}

// PickPoint returns the index of the cloud point best matched by a click, or
// false when no point lies within maxDist of the pick ray. Among candidates
// the score blends distance along the ray with perpendicular offset, so a
// point slightly off-axis but much closer to the camera beats a far point
// dead on the ray. A maxDist of zero or less falls back to a 0.1 unit
// corridor.
func PickPoint(click r2.Point, cam *Camera, d *pointcloud.Data, maxDist float64) (int, bool) {
	if maxDist <= 0 {
		maxDist = defaultPointPickDist
	}
	ray := cam.ScreenRay(click)
	maxDistSq := maxDist * maxDist
	best := -1
	bestScore := math.MaxFloat64
	for i := 0; i < d.Count; i++ {
		w := d.Position(i).Sub(ray.Origin)
		t := w.Dot(ray.Dir)
		if t <= 0 {
			continue
		}
		distSq := w.Norm2()
		perpSq := distSq - t*t
		if perpSq >= maxDistSq {
			continue
		}
		score := distSq/10000 + perpSq
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return best, best >= 0
}
