package coloring

import (
	"sort"

	"github.com/samber/lo"

	"github.com/treescape/lidarview/trees"
)

// TreeColorMode selects how detected tree markers are colored.
type TreeColorMode int

const (
	// TreesBySpecies assigns each species a rotating palette entry.
	TreesBySpecies TreeColorMode = iota
	// TreesByHeight maps tree height onto the elevation gradient.
	TreesByHeight
)

// ForTrees returns one marker color per tree. Species colors are assigned by
// sorted species name so they are stable across list orderings; height colors
// normalize within the list's own height range.
func ForTrees(list []trees.Detected, mode TreeColorMode) []RGBColor {
	out := make([]RGBColor, len(list))
	if len(list) == 0 {
		return out
	}

	switch mode {
	case TreesByHeight:
		minH, maxH := list[0].Height, list[0].Height
		for _, d := range list[1:] {
			if d.Height < minH {
				minH = d.Height
			}
			if d.Height > maxH {
				maxH = d.Height
			}
		}
		span := maxH - minH
		gradient := DefaultHeightGradient()
		for i, d := range list {
			t := 0.0
			if span > 1e-9 {
				t = (d.Height - minH) / span
			}
			out[i] = fromColorful(evalGradient(gradient, t))
		}
	default:
		species := lo.Uniq(lo.Map(list, func(d trees.Detected, _ int) string { return d.Species }))
		sort.Strings(species)
		slot := make(map[string]int, len(species))
		for i, s := range species {
			slot[s] = i
		}
		for i, d := range list {
			out[i] = fromColorful(rotatingPalette[slot[d.Species]%len(rotatingPalette)])
		}
	}
	return out
}
