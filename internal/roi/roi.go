// Package roi provides user-selected regions of interest. Regions are owned
// by the presentation layer; the core only reads their geometry to restrict
// analysis to a subset of tiles.
package roi

import (
	"github.com/google/uuid"

	"layout-verifier/pkg/geometry"
)

// Region is a world-space rectangle restricting analysis. Color carries the
// display hint the presentation layer drew the region with; the core ignores
// it beyond persisting it.
type Region struct {
	ID       uuid.UUID     `json:"id"`
	Rect     geometry.Rect `json:"rect"`
	Selected bool          `json:"selected"`
	Color    string        `json:"color,omitempty"`
}

// New creates a selected region from two opposite corners given in any order,
// matching how regions are drawn interactively.
func New(a, b geometry.Point2D) Region {
	return Region{
		ID:       uuid.New(),
		Rect:     geometry.RectFromCorners(a, b),
		Selected: true,
	}
}

// Selected filters a region set down to the selected ones.
func Selected(regions []Region) []Region {
	var out []Region
	for _, r := range regions {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}
