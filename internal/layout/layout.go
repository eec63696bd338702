// Package layout provides the renderable intermediate form of a source
// layout: a flat list of filled polygons and stroked paths in world
// coordinates, produced upstream by the format converters.
package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"layout-verifier/pkg/geometry"
)

// ElementKind distinguishes the two renderable element types.
type ElementKind string

const (
	KindPolygon ElementKind = "polygon" // filled closed outline
	KindPath    ElementKind = "path"    // stroked open polyline
)

// Element is one drawable item of the layout. Polygons are filled closed
// outlines (drawn material); paths are stroked polylines with a world-space
// stroke width (routing such as waveguides).
type Element struct {
	Kind   ElementKind        `json:"kind"`
	Layer  string             `json:"layer,omitempty"`
	Points []geometry.Point2D `json:"points"`
	Width  float64            `json:"width,omitempty"` // stroke width for paths
}

// BoundingRect returns the element's axis-aligned bounds, padded by half the
// stroke width for paths.
func (e Element) BoundingRect() geometry.Rect {
	box := geometry.BoundingBox(e.Points)
	if e.Kind == KindPath && e.Width > 0 {
		half := e.Width / 2
		box = geometry.Rect{
			X: box.X - half, Y: box.Y - half,
			Width: box.Width + e.Width, Height: box.Height + e.Width,
		}
	}
	return box
}

// Layout holds the full set of renderable elements and the world-space
// bounds the tile grid is laid out over.
type Layout struct {
	Name     string        `json:"name,omitempty"`
	Bounds   geometry.Rect `json:"bounds"`
	Elements []Element     `json:"elements"`
}

// Load reads a converted layout from a JSON file. When the stored bounds are
// degenerate they are recomputed from the element geometry.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}

	if l.Bounds.Empty() {
		l.Bounds = computeBounds(l.Elements)
	}
	if l.Bounds.Empty() {
		return nil, fmt.Errorf("layout %s has no renderable extent", path)
	}
	return &l, nil
}

// Save writes the layout to a JSON file.
func (l *Layout) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ElementsIn returns the elements whose bounds intersect the world rect.
func (l *Layout) ElementsIn(r geometry.Rect) []Element {
	var out []Element
	for _, e := range l.Elements {
		if e.BoundingRect().Intersects(r) {
			out = append(out, e)
		}
	}
	return out
}

func computeBounds(elements []Element) geometry.Rect {
	var bounds geometry.Rect
	for i, e := range elements {
		box := e.BoundingRect()
		if i == 0 {
			bounds = box
		} else {
			bounds = bounds.Union(box)
		}
	}
	return bounds
}
