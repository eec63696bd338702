package app

import (
	"context"
	"image"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/layout"
	"layout-verifier/internal/results"
	"layout-verifier/pkg/geometry"
)

type stubModel struct {
	label classify.Label
}

func (m *stubModel) ClassifyDetailed(ctx context.Context, img image.Image) (string, error) {
	return "stub rationale", nil
}

func (m *stubModel) ClassifyFast(ctx context.Context, img image.Image, rationale string) (classify.Label, float64, error) {
	return m.label, 0.9, nil
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	s.UseLayout(layout.Synthetic(400, 400, 2))
	s.SetClassifiers(&stubModel{label: classify.Continuity}, &stubModel{label: classify.Continuity})
	require.NoError(t, s.GenerateGrid(grid.Config{Rows: 2, Cols: 2, OverlapPercent: 10, ResolutionPx: 32}))
	return s
}

func TestGenerateGridRequiresLayout(t *testing.T) {
	s := NewState()
	err := s.GenerateGrid(grid.DefaultConfig())
	assert.ErrorIs(t, err, ErrNoLayout)
}

func TestGenerateGridRejectsInvalidConfig(t *testing.T) {
	s := NewState()
	s.UseLayout(layout.Synthetic(100, 100, 1))
	err := s.GenerateGrid(grid.Config{Rows: 0, Cols: 2, ResolutionPx: 64})
	assert.ErrorIs(t, err, grid.ErrInvalidGeometry)
}

func TestFullRunToExport(t *testing.T) {
	s := newTestState(t)

	require.NoError(t, s.StartFullRun(context.Background(), 2))
	s.Wait()

	run := s.Store().Run()
	assert.Equal(t, results.StatusCompleted, run.Status)
	assert.Equal(t, 4, run.Completed)
	assert.Equal(t, 4, run.Succeeded)
	assert.Equal(t, 0, run.Failed)

	rec, err := s.ExportRecord()
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Summary.Total)
	assert.Equal(t, 4, rec.Summary.BySource[classify.SourceModel])
	assert.Equal(t, s.Layout.Bounds, rec.Bounds)
}

func TestROIRunSubset(t *testing.T) {
	s := newTestState(t)

	// Region inside the top-left quadrant only.
	s.AddROI(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 150, Y: 150})

	addrs, err := s.ROIAddresses()
	require.NoError(t, err)
	require.Equal(t, []grid.Address{{Row: 0, Col: 0}}, addrs)

	require.NoError(t, s.StartROIRun(context.Background(), 1))
	s.Wait()

	run := s.Store().Run()
	assert.Equal(t, results.StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Completed)
	_, ok := s.Store().Result(grid.Address{Row: 0, Col: 0})
	assert.True(t, ok)
	_, ok = s.Store().Result(grid.Address{Row: 1, Col: 1})
	assert.False(t, ok)
}

func TestROIRunNoSelection(t *testing.T) {
	s := newTestState(t)

	err := s.StartROIRun(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoSelection)

	// A deselected region is the same as none.
	id := s.AddROI(geometry.Point2D{X: 10, Y: 10}, geometry.Point2D{X: 100, Y: 100})
	require.True(t, s.SelectROI(id, false))
	err = s.StartROIRun(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestStartRunRejectsOutsideAddress(t *testing.T) {
	s := newTestState(t)

	err := s.StartRun(context.Background(), []grid.Address{{Row: 5, Col: 5}}, 1)
	assert.ErrorIs(t, err, grid.ErrInvalidGeometry)
}

func TestStartRunRequiresGrid(t *testing.T) {
	s := NewState()
	s.UseLayout(layout.Synthetic(100, 100, 1))

	err := s.StartFullRun(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoGrid)
}

func TestGenerateGridResetsResults(t *testing.T) {
	s := newTestState(t)

	require.NoError(t, s.StartFullRun(context.Background(), 2))
	s.Wait()
	require.NotEmpty(t, s.Store().All())
	require.NotZero(t, s.Cache().Len())

	require.NoError(t, s.GenerateGrid(grid.Config{Rows: 3, Cols: 3, ResolutionPx: 32}))

	assert.Empty(t, s.Store().All())
	assert.Zero(t, s.Cache().Len())
	assert.Equal(t, results.StatusIdle, s.Store().Run().Status)
}

func TestSetManualClassification(t *testing.T) {
	s := newTestState(t)
	addr := grid.Address{Row: 0, Col: 0}

	require.NoError(t, s.SetManualClassification(addr, classify.Discontinuity))

	tr, ok := s.Store().Result(addr)
	require.True(t, ok)
	assert.Equal(t, classify.Discontinuity, tr.Label)
	assert.Equal(t, classify.SourceManual, tr.Source)
	assert.True(t, tr.ReviewedByUser)

	assert.Error(t, s.SetManualClassification(addr, classify.Label("bogus")))
	assert.Error(t, s.SetManualClassification(grid.Address{Row: 9, Col: 9}, classify.Continuity))
}

func TestStartRunConfigurationFailure(t *testing.T) {
	s := newTestState(t)
	s.SetRenderer(nil)

	err := s.StartFullRun(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, results.StatusFailed, s.Store().Run().Status)
}

func TestSelectROIUnknownID(t *testing.T) {
	s := newTestState(t)
	assert.False(t, s.SelectROI(uuid.UUID{1, 2, 3}, true))
}

func TestClearROIs(t *testing.T) {
	s := newTestState(t)
	s.AddROI(geometry.Point2D{}, geometry.Point2D{X: 10, Y: 10})
	require.Len(t, s.ROIs(), 1)

	s.ClearROIs()
	assert.Empty(t, s.ROIs())
}

func TestExportRecordRequiresState(t *testing.T) {
	s := NewState()
	_, err := s.ExportRecord()
	assert.ErrorIs(t, err, ErrNoLayout)

	s.UseLayout(layout.Synthetic(100, 100, 1))
	_, err = s.ExportRecord()
	assert.ErrorIs(t, err, ErrNoGrid)
}
