package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/results"
	"layout-verifier/internal/roi"
	"layout-verifier/pkg/geometry"
)

func sampleResults() []results.TileResult {
	return []results.TileResult{
		{
			Address:    grid.Address{Row: 0, Col: 0},
			Label:      classify.Continuity,
			Confidence: 0.9,
			Source:     classify.SourceModel,
			AnalyzedAt: time.Unix(1700000000, 0),
		},
		{
			Address:    grid.Address{Row: 0, Col: 1},
			Label:      classify.Discontinuity,
			Confidence: 0.6,
			Source:     classify.SourceModel,
			AnalyzedAt: time.Unix(1700000100, 0),
		},
		{
			Address:    grid.Address{Row: 1, Col: 1},
			Label:      classify.NoWaveguide,
			Confidence: 0.25,
			Source:     classify.SourceFallback,
			AnalyzedAt: time.Unix(1700000200, 0),
		},
	}
}

func TestBuildSummary(t *testing.T) {
	cfg := grid.Config{Rows: 2, Cols: 2, OverlapPercent: 10, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}

	rec, err := Build("chip.json", bounds, cfg, nil, sampleResults())
	require.NoError(t, err)

	assert.Equal(t, 3, rec.Summary.Total)
	assert.Equal(t, 1, rec.Summary.ByLabel[classify.Continuity])
	assert.Equal(t, 1, rec.Summary.ByLabel[classify.Discontinuity])
	assert.Equal(t, 1, rec.Summary.ByLabel[classify.NoWaveguide])
	assert.Equal(t, 2, rec.Summary.BySource[classify.SourceModel])
	assert.Equal(t, 1, rec.Summary.BySource[classify.SourceFallback])
	assert.InDelta(t, (0.9+0.6+0.25)/3, rec.Summary.MeanConfidence, 1e-9)
	assert.Greater(t, rec.Summary.StdConfidence, 0.0)
	assert.False(t, rec.GeneratedAt.IsZero())
}

func TestBuildEmptyResults(t *testing.T) {
	cfg := grid.DefaultConfig()
	bounds := geometry.Rect{Width: 100, Height: 100}

	rec, err := Build("", bounds, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Summary.Total)
	assert.Equal(t, 0.0, rec.Summary.MeanConfidence)
}

func TestBuildRejectsAddressOutsideGrid(t *testing.T) {
	cfg := grid.Config{Rows: 1, Cols: 1, ResolutionPx: 64}
	bounds := geometry.Rect{Width: 100, Height: 100}

	_, err := Build("", bounds, cfg, nil, sampleResults())
	assert.Error(t, err)
}

func TestBuildRejectsInvalidGrid(t *testing.T) {
	_, err := Build("", geometry.Rect{Width: 1, Height: 1}, grid.Config{}, nil, nil)
	assert.ErrorIs(t, err, grid.ErrInvalidGeometry)
}

func TestRecordSaveRoundTrip(t *testing.T) {
	cfg := grid.Config{Rows: 2, Cols: 2, OverlapPercent: 10, ResolutionPx: 256}
	bounds := geometry.Rect{Width: 100, Height: 100}
	regions := []roi.Region{roi.New(geometry.Point2D{X: 1, Y: 1}, geometry.Point2D{X: 40, Y: 40})}

	rec, err := Build("chip.json", bounds, cfg, regions, sampleResults())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, rec.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Record
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, rec.Grid, loaded.Grid)
	assert.Equal(t, rec.Summary.Total, loaded.Summary.Total)
	assert.Len(t, loaded.Results, 3)
	assert.Len(t, loaded.Regions, 1)
	assert.Equal(t, regions[0].ID, loaded.Regions[0].ID)
}
