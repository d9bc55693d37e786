package coloring

import "github.com/lucasb-eyer/go-colorful"

// GradientStop anchors a color at a normalized position in [0,1].
type GradientStop struct {
	Position float64
	Color    colorful.Color
}

// DefaultHeightGradient is the blue-through-red elevation ramp the viewer
// ships with.
func DefaultHeightGradient() []GradientStop {
	return []GradientStop{
		{0.0, mustHex("#2c7bb6")},
		{0.25, mustHex("#abd9e9")},
		{0.5, mustHex("#ffffbf")},
		{0.75, mustHex("#fdae61")},
		{1.0, mustHex("#d7191c")},
	}
}

// evalGradient blends linearly between the two stops straddling t. Positions
// outside the stop range clamp to the nearest endpoint.
func evalGradient(stops []GradientStop, t float64) colorful.Color {
	if t <= stops[0].Position {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Position {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		if t > stops[i].Position {
			continue
		}
		prev := stops[i-1]
		span := stops[i].Position - prev.Position
		if span <= 0 {
			return stops[i].Color
		}
		return prev.Color.BlendRgb(stops[i].Color, (t-prev.Position)/span)
	}
	return last.Color
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
