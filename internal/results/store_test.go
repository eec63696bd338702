package results

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
)

func addr(row, col uint) grid.Address {
	return grid.Address{Row: row, Col: col}
}

func modelResult(a grid.Address, label classify.Label) Result {
	return Result{Address: a, Tile: TileResult{
		Address:    a,
		Label:      label,
		Confidence: 0.9,
		Rationale:  "clean guide",
		Source:     classify.SourceModel,
		AnalyzedAt: time.Unix(1700000000, 0),
	}}
}

func fallbackResult(a grid.Address) Result {
	return Result{Address: a, Tile: TileResult{
		Address:    a,
		Label:      classify.Continuity,
		Confidence: 0.25,
		Source:     classify.SourceFallback,
		AnalyzedAt: time.Unix(1700000000, 0),
	}}
}

func TestStoreBeginRun(t *testing.T) {
	s := NewStore()
	requested := []grid.Address{addr(0, 0), addr(0, 1)}

	run := s.BeginRun(requested)

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, requested, run.Requested)
	assert.Equal(t, requested, s.InFlight())
}

func TestStoreApplyResultCounters(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0), addr(0, 1), addr(1, 0)})

	s.Apply(modelResult(addr(0, 0), classify.Continuity))
	s.Apply(fallbackResult(addr(0, 1)))

	run := s.Run()
	assert.Equal(t, 2, run.Completed)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Fallback)
	assert.Equal(t, []grid.Address{addr(1, 0)}, s.InFlight())
}

func TestStoreApplyIdempotent(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})

	msg := modelResult(addr(0, 0), classify.Discontinuity)
	s.Apply(msg)
	s.Apply(msg)
	s.Apply(msg)

	run := s.Run()
	assert.Equal(t, 1, run.Completed)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 0, run.Fallback)
}

func TestStoreReanalysisMovesSourceBucket(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})

	// First attempt degraded to fallback, a retry in the same run got a
	// model answer. Completed stays 1 and the buckets move.
	s.Apply(fallbackResult(addr(0, 0)))
	s.Apply(modelResult(addr(0, 0), classify.Continuity))

	run := s.Run()
	assert.Equal(t, 1, run.Completed)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 0, run.Fallback)

	tr, ok := s.Result(addr(0, 0))
	require.True(t, ok)
	assert.Equal(t, classify.SourceModel, tr.Source)
}

func TestStoreResultOutsideRequestedSet(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})

	s.Apply(modelResult(addr(3, 3), classify.Continuity))

	// Stored, but the per-run counters don't move.
	_, ok := s.Result(addr(3, 3))
	assert.True(t, ok)
	run := s.Run()
	assert.Equal(t, 0, run.Completed)
	assert.Equal(t, 0, run.Succeeded)
}

func TestStoreApplyError(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})

	e := Error{Address: addr(0, 0), Kind: ErrorRender, Detail: "renderer unavailable"}
	s.Apply(e)
	s.Apply(e) // duplicate does not double count

	run := s.Run()
	assert.Equal(t, 1, run.Failed)

	got, ok := s.LastError(addr(0, 0))
	require.True(t, ok)
	assert.Equal(t, ErrorRender, got.Kind)
}

func TestStoreStatusChanged(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})

	var events []Status
	s.On(EventStatusChanged, func(data interface{}) {
		events = append(events, data.(Status))
	})

	s.Apply(StatusChanged{Status: StatusPaused})
	s.Apply(StatusChanged{Status: StatusPaused}) // no change, no event
	s.Apply(StatusChanged{Status: StatusCompleted})

	assert.Equal(t, []Status{StatusPaused, StatusCompleted}, events)
	assert.Equal(t, StatusCompleted, s.Run().Status)
}

func TestStoreSetManual(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})
	s.Apply(modelResult(addr(0, 0), classify.Continuity))

	s.SetManual(addr(0, 0), classify.Discontinuity)

	tr, ok := s.Result(addr(0, 0))
	require.True(t, ok)
	assert.Equal(t, classify.Discontinuity, tr.Label)
	assert.Equal(t, classify.SourceManual, tr.Source)
	assert.Equal(t, 1.0, tr.Confidence)
	assert.True(t, tr.ReviewedByUser)
	assert.Equal(t, "clean guide", tr.Rationale, "model rationale survives the override")
}

func TestStoreAllRowMajorOrder(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(1, 1), addr(0, 1), addr(1, 0), addr(0, 0)})

	for _, a := range []grid.Address{addr(1, 1), addr(0, 1), addr(1, 0), addr(0, 0)} {
		s.Apply(modelResult(a, classify.Continuity))
	}

	all := s.All()
	require.Len(t, all, 4)
	want := []grid.Address{addr(0, 0), addr(0, 1), addr(1, 0), addr(1, 1)}
	for i, tr := range all {
		assert.Equal(t, want[i], tr.Address)
	}
}

func TestStoreResultsSurviveNewRun(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})
	s.Apply(modelResult(addr(0, 0), classify.Continuity))

	s.BeginRun([]grid.Address{addr(0, 0)})

	// Prior results stay visible, but the new run starts uncounted.
	_, ok := s.Result(addr(0, 0))
	assert.True(t, ok)
	run := s.Run()
	assert.Equal(t, 0, run.Completed)
	assert.Equal(t, []grid.Address{addr(0, 0)}, s.InFlight())
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	s.BeginRun([]grid.Address{addr(0, 0)})
	s.Apply(modelResult(addr(0, 0), classify.Continuity))
	s.Apply(Error{Address: addr(0, 0), Kind: ErrorClassify, Detail: "quota"})

	s.Reset()

	assert.Equal(t, StatusIdle, s.Run().Status)
	assert.Empty(t, s.All())
	_, ok := s.LastError(addr(0, 0))
	assert.False(t, ok)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusPaused.Terminal())
	assert.False(t, StatusIdle.Terminal())
}
