package render

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	placeholderFill  = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	placeholderHatch = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// Placeholder returns the marker image substituted when every renderer
// fails. The classification step requires an image even if imperfect; the
// diagonal hatching keeps placeholder tiles visually distinct in review.
func Placeholder(resolutionPx uint) image.Image {
	size := int(resolutionPx)
	if size < 1 {
		size = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{placeholderFill}, image.Point{}, draw.Src)

	step := max(size/16, 4)
	for d := -size; d < size; d += step {
		for x := 0; x < size; x++ {
			y := x + d
			if y >= 0 && y < size {
				img.SetRGBA(x, y, placeholderHatch)
			}
		}
	}
	return img
}
