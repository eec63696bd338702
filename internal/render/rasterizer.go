package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"layout-verifier/internal/layout"
	"layout-verifier/pkg/geometry"
)

// Background is the canvas color tiles are rendered onto. Waveguide channels
// show up as background-colored gaps between filled material.
var Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// DefaultMaterial is the fill color for layers without an explicit entry in
// LayerColors.
var DefaultMaterial = color.RGBA{R: 0, G: 128, B: 128, A: 255}

// LayerColors maps layout layer names to fill colors.
var LayerColors = map[string]color.RGBA{
	"cladding": {R: 0, G: 128, B: 128, A: 255},
	"fill":     {R: 120, G: 160, B: 160, A: 255},
}

// supersample is the oversampling factor applied before the final downscale.
const supersample = 2

// LayoutRenderer rasterizes layout elements intersecting a world rect.
type LayoutRenderer struct {
	Layout *layout.Layout
}

// NewLayoutRenderer creates a renderer over the given layout.
func NewLayoutRenderer(l *layout.Layout) *LayoutRenderer {
	return &LayoutRenderer{Layout: l}
}

// RenderTile implements Renderer. The region is drawn at 2x resolution and
// downscaled with bilinear filtering so thin channels survive rasterization.
func (r *LayoutRenderer) RenderTile(ctx context.Context, worldRect geometry.Rect, resolutionPx uint) (image.Image, error) {
	if r.Layout == nil || worldRect.Empty() || resolutionPx < 1 {
		return nil, ErrUnavailable
	}

	size := int(resolutionPx) * supersample
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{Background}, image.Point{}, draw.Src)

	// World -> tile pixel transform.
	sx := float64(size) / worldRect.Width
	sy := float64(size) / worldRect.Height
	toPixel := func(p geometry.Point2D) geometry.Point2D {
		return geometry.Point2D{X: (p.X - worldRect.X) * sx, Y: (p.Y - worldRect.Y) * sy}
	}

	for _, e := range r.Layout.ElementsIn(worldRect) {
		if err := ctx.Err(); err != nil {
			if err == context.DeadlineExceeded {
				return nil, ErrTimeout
			}
			return nil, err
		}

		pts := make([]geometry.Point2D, len(e.Points))
		for i, p := range e.Points {
			pts[i] = toPixel(p)
		}

		c := DefaultMaterial
		if lc, ok := LayerColors[e.Layer]; ok {
			c = lc
		}

		switch e.Kind {
		case layout.KindPolygon:
			fillPolygon(canvas, pts, c)
		case layout.KindPath:
			width := e.Width * (sx + sy) / 2
			if width < 1 {
				width = 1
			}
			for i := 0; i < len(pts)-1; i++ {
				drawThickLine(canvas, pts[i], pts[i+1], width, c)
			}
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, int(resolutionPx), int(resolutionPx)))
	xdraw.BiLinear.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
	return out, nil
}
