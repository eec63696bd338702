package render

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"layout-verifier/pkg/geometry"
)

// RasterRenderer serves tiles by cropping a pre-rendered raster of the full
// layout extent, such as a bitmap exported by an upstream conversion step.
// It is typically chained in front of the LayoutRenderer so an available
// raster wins and vector rasterization remains the fallback.
type RasterRenderer struct {
	Image  image.Image
	Bounds geometry.Rect // world rect the raster covers
}

// LoadRaster reads a full-extent raster (PNG, JPEG, or TIFF) covering the
// given world bounds.
func LoadRaster(path string, bounds geometry.Rect) (*RasterRenderer, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("raster bounds have zero area")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", path, err)
	}
	return &RasterRenderer{Image: img, Bounds: bounds}, nil
}

// RenderTile implements Renderer. World rects outside the raster's coverage
// report ErrUnavailable so a chained renderer can take over.
func (r *RasterRenderer) RenderTile(ctx context.Context, worldRect geometry.Rect, resolutionPx uint) (image.Image, error) {
	if r.Image == nil || r.Bounds.Empty() || worldRect.Empty() || resolutionPx < 1 {
		return nil, ErrUnavailable
	}
	if worldRect.Intersect(r.Bounds).Area() <= 0 {
		return nil, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, err
	}

	src := r.Image.Bounds()
	sx := float64(src.Dx()) / r.Bounds.Width
	sy := float64(src.Dy()) / r.Bounds.Height

	crop := image.Rect(
		src.Min.X+int((worldRect.X-r.Bounds.X)*sx),
		src.Min.Y+int((worldRect.Y-r.Bounds.Y)*sy),
		src.Min.X+int((worldRect.X+worldRect.Width-r.Bounds.X)*sx),
		src.Min.Y+int((worldRect.Y+worldRect.Height-r.Bounds.Y)*sy),
	).Intersect(src)
	if crop.Empty() {
		return nil, ErrUnavailable
	}

	out := image.NewRGBA(image.Rect(0, 0, int(resolutionPx), int(resolutionPx)))
	xdraw.BiLinear.Scale(out, out.Bounds(), r.Image, crop, xdraw.Src, nil)
	return out, nil
}
