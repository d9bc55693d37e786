// Package lod derives decimated detail levels from a point cloud so the
// viewer can swap in sparser geometry as the camera pulls back.
package lod

import (
	"context"

	"github.com/pkg/errors"

	"github.com/treescape/lidarview/pointcloud"
	"github.com/treescape/lidarview/utils"
)

// Level is one decimated rendering of a cloud. Positions and Colors follow
// the same interleaved layout as pointcloud.Data; Colors is nil when the
// source cloud had not been colorized. SwitchDistance is the nominal camera
// distance beyond which this level suffices.
type Level struct {
	Positions      []float32
	Colors         []float32
	Count          int
	Factor         int
	SwitchDistance float64
}

// BuildLevels builds one level per decimation factor using deterministic
// stride sampling: a point with index i survives factor f iff i%f == 0, so
// every level is an order-preserving subset of the source and rebuilding
// yields identical buffers. Factor 1 copies the cloud unchanged. Factors
// below 1 are rejected.
func BuildLevels(ctx context.Context, d *pointcloud.Data, factors []int) ([]Level, error) {
	for _, f := range factors {
		if f < 1 {
			return nil, errors.Errorf("decimation factor must be >= 1, got %d", f)
		}
	}

	diag := 0.0
	if d.Bounds.Valid() {
		diag = d.Bounds.Diagonal()
	}

	levels := make([]Level, 0, len(factors))
	for _, f := range factors {
		count := utils.CeilDiv(d.Count, f)
		lvl := Level{
			Positions:      make([]float32, 3*count),
			Count:          count,
			Factor:         f,
			SwitchDistance: diag * float64(f),
		}
		if d.HasColor() {
			lvl.Colors = make([]float32, 3*count)
		}

		if f == 1 {
			copy(lvl.Positions, d.Positions)
			copy(lvl.Colors, d.Colors)
		} else if err := strideCopy(ctx, &lvl, d, f, count); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

func strideCopy(ctx context.Context, lvl *Level, d *pointcloud.Data, factor, count int) error {
	return utils.GroupWorkParallel(
		ctx,
		count,
		func(groupSize int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				src := workNum * factor
				lvl.Positions[3*workNum] = d.Positions[3*src]
				lvl.Positions[3*workNum+1] = d.Positions[3*src+1]
				lvl.Positions[3*workNum+2] = d.Positions[3*src+2]
				if lvl.Colors != nil {
					lvl.Colors[3*workNum] = d.Colors[3*src]
					lvl.Colors[3*workNum+1] = d.Colors[3*src+1]
					lvl.Colors[3*workNum+2] = d.Colors[3*src+2]
				}
			}, nil
		},
	)
}
