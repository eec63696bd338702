// Package export assembles the reviewable record of an analysis: grid
// configuration, every tile result in row-major order, ROI definitions, and
// aggregate statistics. The on-disk schema past this JSON form belongs to
// downstream exporters.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/results"
	"layout-verifier/internal/roi"
	"layout-verifier/pkg/geometry"
)

// Summary aggregates the result set so reviewers can see at a glance how
// much of the classification needs extra scrutiny (fallback-sourced results
// do).
type Summary struct {
	Total          int                     `json:"total"`
	ByLabel        map[classify.Label]int  `json:"by_label"`
	BySource       map[classify.Source]int `json:"by_source"`
	MeanConfidence float64                 `json:"mean_confidence"`
	StdConfidence  float64                 `json:"std_confidence"`
}

// Record is the complete, internally consistent export of one analysis
// session.
type Record struct {
	GeneratedAt time.Time            `json:"generated_at"`
	LayoutPath  string               `json:"layout_path,omitempty"`
	Bounds      geometry.Rect        `json:"layout_bounds"`
	Grid        grid.Config          `json:"grid"`
	Regions     []roi.Region         `json:"regions,omitempty"`
	Results     []results.TileResult `json:"results"`
	Summary     Summary              `json:"summary"`
}

// Build assembles a record, rejecting any result whose address lies outside
// the grid: the record must never reference a tile the grid cannot produce.
func Build(layoutPath string, bounds geometry.Rect, cfg grid.Config, regions []roi.Region, tileResults []results.TileResult) (*Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, tr := range tileResults {
		if !cfg.Contains(tr.Address) {
			return nil, fmt.Errorf("result for %s outside %dx%d grid",
				tr.Address, cfg.Rows, cfg.Cols)
		}
	}

	return &Record{
		GeneratedAt: time.Now(),
		LayoutPath:  layoutPath,
		Bounds:      bounds,
		Grid:        cfg,
		Regions:     regions,
		Results:     tileResults,
		Summary:     summarize(tileResults),
	}, nil
}

// Save writes the record as indented JSON.
func (r *Record) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export record: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func summarize(tileResults []results.TileResult) Summary {
	s := Summary{
		Total:    len(tileResults),
		ByLabel:  make(map[classify.Label]int),
		BySource: make(map[classify.Source]int),
	}

	confidences := make([]float64, 0, len(tileResults))
	for _, tr := range tileResults {
		s.ByLabel[tr.Label]++
		s.BySource[tr.Source]++
		confidences = append(confidences, tr.Confidence)
	}

	if len(confidences) > 0 {
		s.MeanConfidence = stat.Mean(confidences, nil)
		if len(confidences) > 1 {
			s.StdConfidence = stat.StdDev(confidences, nil)
		}
	}
	return s
}
