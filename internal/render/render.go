// Package render produces raster images for world-space tile regions.
package render

import (
	"context"
	"errors"
	"image"

	"layout-verifier/pkg/geometry"
)

// ErrUnavailable indicates the renderer has no backing source for the
// requested region.
var ErrUnavailable = errors.New("renderer unavailable")

// ErrTimeout indicates rendering was abandoned before completion.
var ErrTimeout = errors.New("render timed out")

// Renderer produces a raster image of a world-space region at the given
// square pixel resolution.
type Renderer interface {
	RenderTile(ctx context.Context, worldRect geometry.Rect, resolutionPx uint) (image.Image, error)
}

// Chain tries each renderer in order, returning the first success. A
// renderer reporting ErrUnavailable passes control to the next; any other
// error aborts the chain. The fallback order is data, not nested
// conditionals, so callers can assemble provider lists at startup.
type Chain []Renderer

// RenderTile implements Renderer.
func (c Chain) RenderTile(ctx context.Context, worldRect geometry.Rect, resolutionPx uint) (image.Image, error) {
	if len(c) == 0 {
		return nil, ErrUnavailable
	}

	var lastErr error
	for _, r := range c {
		img, err := r.RenderTile(ctx, worldRect, resolutionPx)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
	}
	return nil, lastErr
}
