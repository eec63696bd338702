package grid

import (
	"fmt"
	"math"

	"layout-verifier/pkg/geometry"
)

// NominalWorldRect returns the tile's world-space cell without overlap
// expansion. This is the rect used for ROI membership: overlap exists to give
// the classifier context at tile boundaries, not to change which tiles count
// as inside a user-selected region.
func NominalWorldRect(addr Address, cfg Config, bounds geometry.Rect) (geometry.Rect, error) {
	if err := cfg.Validate(); err != nil {
		return geometry.Rect{}, err
	}
	if err := validateBounds(bounds); err != nil {
		return geometry.Rect{}, err
	}
	if !cfg.Contains(addr) {
		return geometry.Rect{}, fmt.Errorf("%w: address %s outside %dx%d grid",
			ErrInvalidGeometry, addr, cfg.Rows, cfg.Cols)
	}

	stepW := bounds.Width / float64(cfg.Cols)
	stepH := bounds.Height / float64(cfg.Rows)
	return geometry.Rect{
		X:      bounds.X + float64(addr.Col)*stepW,
		Y:      bounds.Y + float64(addr.Row)*stepH,
		Width:  stepW,
		Height: stepH,
	}, nil
}

// AddressWorldRect returns the tile's world-space rect including overlap:
// the nominal cell expanded symmetrically by OverlapPercent/2 of its width
// and height, clipped to the layout bounds at the outer boundary.
func AddressWorldRect(addr Address, cfg Config, bounds geometry.Rect) (geometry.Rect, error) {
	nominal, err := NominalWorldRect(addr, cfg, bounds)
	if err != nil {
		return geometry.Rect{}, err
	}

	exX := nominal.Width * cfg.OverlapPercent / 100 / 2
	exY := nominal.Height * cfg.OverlapPercent / 100 / 2
	expanded := geometry.Rect{
		X:      nominal.X - exX,
		Y:      nominal.Y - exY,
		Width:  nominal.Width + 2*exX,
		Height: nominal.Height + 2*exY,
	}
	return expanded.Intersect(bounds), nil
}

// WorldToPixel maps a world-space rect into the pixel space of the full grid
// raster, where every tile cell spans ResolutionPx pixels.
func WorldToPixel(r geometry.Rect, cfg Config, bounds geometry.Rect) (geometry.Rect, error) {
	if err := cfg.Validate(); err != nil {
		return geometry.Rect{}, err
	}
	if err := validateBounds(bounds); err != nil {
		return geometry.Rect{}, err
	}

	sx := float64(cfg.Cols) * float64(cfg.ResolutionPx) / bounds.Width
	sy := float64(cfg.Rows) * float64(cfg.ResolutionPx) / bounds.Height
	return geometry.Rect{
		X:      (r.X - bounds.X) * sx,
		Y:      (r.Y - bounds.Y) * sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}, nil
}

// PixelToWorld is the inverse of WorldToPixel.
func PixelToWorld(r geometry.Rect, cfg Config, bounds geometry.Rect) (geometry.Rect, error) {
	if err := cfg.Validate(); err != nil {
		return geometry.Rect{}, err
	}
	if err := validateBounds(bounds); err != nil {
		return geometry.Rect{}, err
	}

	sx := bounds.Width / (float64(cfg.Cols) * float64(cfg.ResolutionPx))
	sy := bounds.Height / (float64(cfg.Rows) * float64(cfg.ResolutionPx))
	return geometry.Rect{
		X:      bounds.X + r.X*sx,
		Y:      bounds.Y + r.Y*sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}, nil
}

// AddressAt returns the address of the tile cell containing the world-space
// point, clamped to the grid edges.
func AddressAt(p geometry.Point2D, cfg Config, bounds geometry.Rect) (Address, error) {
	if err := cfg.Validate(); err != nil {
		return Address{}, err
	}
	if err := validateBounds(bounds); err != nil {
		return Address{}, err
	}

	stepW := bounds.Width / float64(cfg.Cols)
	stepH := bounds.Height / float64(cfg.Rows)

	col := int(math.Floor((p.X - bounds.X) / stepW))
	row := int(math.Floor((p.Y - bounds.Y) / stepH))

	col = max(0, min(col, int(cfg.Cols)-1))
	row = max(0, min(row, int(cfg.Rows)-1))

	return Address{Row: uint(row), Col: uint(col)}, nil
}
