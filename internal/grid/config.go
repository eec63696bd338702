// Package grid provides the tile grid model: configuration, tile addressing,
// and the pure coordinate mapping between world space and pixel space.
package grid

import (
	"errors"
	"fmt"

	"layout-verifier/pkg/geometry"
)

// ErrInvalidGeometry indicates a structurally invalid grid configuration or
// degenerate layout bounds. It is always rejected before any work starts.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Config describes how the layout is partitioned into tiles.
// A Config is immutable once a grid has been generated from it; changing any
// field means regenerating the grid and invalidating every cached tile.
type Config struct {
	Rows           uint    `json:"rows"`
	Cols           uint    `json:"cols"`
	OverlapPercent float64 `json:"overlap_percent"`
	ResolutionPx   uint    `json:"resolution_px"`
}

// DefaultConfig returns the grid configuration used when none is specified.
func DefaultConfig() Config {
	return Config{Rows: 4, Cols: 4, OverlapPercent: 10, ResolutionPx: 512}
}

// Validate checks the structural invariants: at least one row and column,
// overlap strictly below 100%, and a positive render resolution.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("%w: grid must have at least 1 row and 1 column (got %dx%d)",
			ErrInvalidGeometry, c.Rows, c.Cols)
	}
	if c.OverlapPercent < 0 || c.OverlapPercent >= 100 {
		return fmt.Errorf("%w: overlap must be in [0,100), got %.2f",
			ErrInvalidGeometry, c.OverlapPercent)
	}
	if c.ResolutionPx < 1 {
		return fmt.Errorf("%w: resolution must be at least 1px", ErrInvalidGeometry)
	}
	return nil
}

// TileCount returns the total number of tiles in the grid.
func (c Config) TileCount() uint {
	return c.Rows * c.Cols
}

func validateBounds(bounds geometry.Rect) error {
	if bounds.Empty() {
		return fmt.Errorf("%w: layout bounds have zero area", ErrInvalidGeometry)
	}
	return nil
}
