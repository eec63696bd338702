package layout

import (
	"math"

	"layout-verifier/pkg/geometry"
)

// Synthetic builds a layout resembling a photonic routing block: horizontal
// waveguide channels between filled cladding strips, plus the repetitive
// background fill marks real layouts carry. Deterministic, used by the demo
// mode of the CLI and by tests that need renderable geometry.
func Synthetic(width, height float64, channels int) *Layout {
	l := &Layout{
		Name:   "synthetic",
		Bounds: geometry.NewRect(0, 0, width, height),
	}

	if channels < 1 {
		channels = 3
	}

	// Cladding strips with a gap (the guided channel) between each pair.
	pitch := height / float64(channels)
	gap := pitch * 0.15
	for i := 0; i < channels; i++ {
		y := float64(i) * pitch
		stripH := (pitch - gap) / 2
		l.Elements = append(l.Elements,
			rectPolygon(0, y, width, stripH, "cladding"),
			rectPolygon(0, y+stripH+gap, width, stripH, "cladding"),
		)
	}

	// Background fill: a sparse grid of small squares, ignored by reviewers
	// but present so classifiers must discriminate them from waveguides.
	mark := math.Min(width, height) / 80
	for x := mark * 4; x < width; x += mark * 16 {
		for y := mark * 4; y < height; y += mark * 16 {
			l.Elements = append(l.Elements, rectPolygon(x, y, mark, mark, "fill"))
		}
	}

	return l
}

func rectPolygon(x, y, w, h float64, layer string) Element {
	return Element{
		Kind:  KindPolygon,
		Layer: layer,
		Points: []geometry.Point2D{
			{X: x, Y: y},
			{X: x + w, Y: y},
			{X: x + w, Y: y + h},
			{X: x, Y: y + h},
		},
	}
}
