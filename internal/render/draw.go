package render

import (
	"image"
	"image/color"
	"math"
	"sort"

	"layout-verifier/pkg/geometry"
)

// fillPolygon fills a closed polygon using even-odd scanline filling.
func fillPolygon(img *image.RGBA, pts []geometry.Point2D, c color.RGBA) {
	if len(pts) < 3 {
		return
	}

	bounds := img.Bounds()
	minY := int(math.Floor(pts[0].Y))
	maxY := minY
	for _, p := range pts[1:] {
		minY = min(minY, int(math.Floor(p.Y)))
		maxY = max(maxY, int(math.Ceil(p.Y)))
	}
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)

	for y := minY; y <= maxY; y++ {
		cy := float64(y) + 0.5

		// Collect x crossings of the scanline with polygon edges.
		var xs []float64
		j := len(pts) - 1
		for i := 0; i < len(pts); i++ {
			a, b := pts[i], pts[j]
			if (a.Y > cy) != (b.Y > cy) {
				x := a.X + (cy-a.Y)/(b.Y-a.Y)*(b.X-a.X)
				xs = append(xs, x)
			}
			j = i
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x1 := max(int(math.Ceil(xs[i]-0.5)), bounds.Min.X)
			x2 := min(int(math.Floor(xs[i+1]-0.5)), bounds.Max.X-1)
			for x := x1; x <= x2; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawThickLine strokes a segment with the given pixel width by filling the
// rectangle swept along its perpendicular.
func drawThickLine(img *image.RGBA, a, b geometry.Point2D, width float64, c color.RGBA) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return
	}

	px := -dy / length * width / 2
	py := dx / length * width / 2

	fillPolygon(img, []geometry.Point2D{
		{X: a.X + px, Y: a.Y + py},
		{X: b.X + px, Y: b.Y + py},
		{X: b.X - px, Y: b.Y - py},
		{X: a.X - px, Y: a.Y - py},
	}, c)
}
