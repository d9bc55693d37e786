package lod

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/treescape/lidarview/pointcloud"
)

// voxelCoords addresses a cell of a regular grid anchored at the cloud's
// minimum corner.
type voxelCoords struct {
	I, J, K int64
}

func voxelKey(p, min r3.Vector, size float64) voxelCoords {
	return voxelCoords{
		I: int64(math.Floor((p.X - min.X) / size)),
		J: int64(math.Floor((p.Y - min.Y) / size)),
		K: int64(math.Floor((p.Z - min.Z) / size)),
	}
}

// BuildVoxelLevel decimates by density rather than stride: the cloud is
// bucketed into cubic voxels of the given size and each occupied voxel keeps
// the single point nearest its centroid, so dense canopy thins out while
// sparse ground returns survive. Voxels emit in first-seen order and ties go
// to the lower point index, making the output deterministic. Factor reports
// the effective decimation ratio.
func BuildVoxelLevel(d *pointcloud.Data, voxelSize float64) (Level, error) {
	if voxelSize <= 0 {
		return Level{}, errors.Errorf("voxel size must be positive, got %f", voxelSize)
	}
	if d.Count == 0 {
		return Level{Positions: make([]float32, 0)}, nil
	}

	min := d.Bounds.Min

	type cell struct {
		sum r3.Vector
		n   int
	}
	cells := make(map[voxelCoords]*cell)
	order := make([]voxelCoords, 0)
	for i := 0; i < d.Count; i++ {
		key := voxelKey(d.Position(i), min, voxelSize)
		c, ok := cells[key]
		if !ok {
			c = &cell{}
			cells[key] = c
			order = append(order, key)
		}
		c.sum = c.sum.Add(d.Position(i))
		c.n++
	}

	type pick struct {
		idx    int
		distSq float64
	}
	best := make(map[voxelCoords]pick, len(cells))
	for i := 0; i < d.Count; i++ {
		p := d.Position(i)
		key := voxelKey(p, min, voxelSize)
		centroid := cells[key].sum.Mul(1 / float64(cells[key].n))
		distSq := p.Sub(centroid).Norm2()
		if b, ok := best[key]; !ok || distSq < b.distSq {
			best[key] = pick{idx: i, distSq: distSq}
		}
	}

	kept := len(order)
	lvl := Level{
		Positions: make([]float32, 3*kept),
		Count:     kept,
		Factor:    d.Count / kept,
	}
	if lvl.Factor < 1 {
		lvl.Factor = 1
	}
	if d.Bounds.Valid() {
		lvl.SwitchDistance = d.Bounds.Diagonal() * float64(lvl.Factor)
	}
	if d.HasColor() {
		lvl.Colors = make([]float32, 3*kept)
	}
	for out, key := range order {
		src := best[key].idx
		lvl.Positions[3*out] = d.Positions[3*src]
		lvl.Positions[3*out+1] = d.Positions[3*src+1]
		lvl.Positions[3*out+2] = d.Positions[3*src+2]
		if lvl.Colors != nil {
			lvl.Colors[3*out] = d.Colors[3*src]
			lvl.Colors[3*out+1] = d.Colors[3*src+1]
			lvl.Colors[3*out+2] = d.Colors[3*src+2]
		}
	}
	return lvl, nil
}
