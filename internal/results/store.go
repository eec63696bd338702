package results

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
)

// EventType identifies store change notifications.
type EventType int

const (
	EventRunStarted EventType = iota
	EventStatusChanged
	EventProgress
	EventTileResult
	EventTileError
)

// EventListener is called when a store event occurs.
type EventListener func(data interface{})

// Store owns every TileResult and the current Run. Workers never touch it
// directly: the message-channel consumer applies their messages, and the
// presentation layer reads through the query methods. Apply is idempotent
// and last-write-wins per address.
type Store struct {
	mu        sync.RWMutex
	run       Run
	completed map[grid.Address]bool // addresses with an outcome in the current run
	results   map[grid.Address]TileResult
	errors    map[grid.Address]Error
	listeners map[EventType][]EventListener
}

// NewStore creates an empty store with an idle run.
func NewStore() *Store {
	return &Store{
		run:       Run{Status: StatusIdle},
		completed: make(map[grid.Address]bool),
		results:   make(map[grid.Address]TileResult),
		errors:    make(map[grid.Address]Error),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Store) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Store) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// BeginRun installs a new run over the requested addresses. Results from
// earlier runs are kept (re-analysis overwrites per address), but per-run
// counters start fresh.
func (s *Store) BeginRun(requested []grid.Address) Run {
	s.mu.Lock()
	s.run = Run{
		ID:        uuid.New(),
		Status:    StatusRunning,
		Requested: append([]grid.Address(nil), requested...),
	}
	s.completed = make(map[grid.Address]bool)
	s.errors = make(map[grid.Address]Error)
	run := s.run
	s.mu.Unlock()

	s.Emit(EventRunStarted, run)
	return run
}

// Apply folds one worker message into the store. Applying the same message
// twice leaves the state unchanged.
func (s *Store) Apply(msg Message) {
	switch m := msg.(type) {
	case StatusChanged:
		s.mu.Lock()
		changed := s.run.Status != m.Status
		s.run.Status = m.Status
		s.mu.Unlock()
		if changed {
			s.Emit(EventStatusChanged, m.Status)
		}

	case Result:
		s.mu.Lock()
		prev, had := s.results[m.Address]
		if had && prev == m.Tile {
			s.mu.Unlock()
			return
		}
		s.applyResultLocked(m.Address, m.Tile, prev, had)
		s.mu.Unlock()
		s.Emit(EventTileResult, m)

	case Error:
		s.mu.Lock()
		prev, had := s.errors[m.Address]
		if had && prev == m {
			s.mu.Unlock()
			return
		}
		s.errors[m.Address] = m
		if !had {
			s.run.Failed++
		}
		s.mu.Unlock()
		s.Emit(EventTileError, m)

	case Progress:
		s.Emit(EventProgress, m)
	}
}

func (s *Store) applyResultLocked(addr grid.Address, tr TileResult, prev TileResult, had bool) {
	s.results[addr] = tr

	// Counters are per run; results for addresses outside the requested set
	// (manual overrides between runs) don't move them.
	if !s.requestedLocked(addr) {
		return
	}

	if s.completed[addr] {
		// A newer result for an address already counted: retract the old
		// source bucket so re-application stays a no-op in aggregate.
		switch prev.Source {
		case classify.SourceFallback:
			s.run.Fallback--
		case classify.SourceModel:
			s.run.Succeeded--
		}
	} else {
		s.completed[addr] = true
		s.run.Completed++
	}

	switch tr.Source {
	case classify.SourceFallback:
		s.run.Fallback++
	case classify.SourceModel:
		s.run.Succeeded++
	}
}

func (s *Store) requestedLocked(addr grid.Address) bool {
	for _, a := range s.run.Requested {
		if a == addr {
			return true
		}
	}
	return false
}

// SetManual overwrites the classification for an address with a reviewer's
// label. The previous rationale is kept so the model's reasoning stays
// visible next to the override.
func (s *Store) SetManual(addr grid.Address, label classify.Label) {
	s.mu.Lock()
	prev := s.results[addr]
	tr := TileResult{
		Address:        addr,
		Label:          label,
		Confidence:     1.0,
		Rationale:      prev.Rationale,
		Source:         classify.SourceManual,
		ReviewedByUser: true,
		AnalyzedAt:     time.Now(),
	}
	s.results[addr] = tr
	s.mu.Unlock()

	s.Emit(EventTileResult, Result{Address: addr, Tile: tr})
}

// Result returns the stored result for an address, if any.
func (s *Store) Result(addr grid.Address) (TileResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.results[addr]
	return tr, ok
}

// Run returns a snapshot of the current run aggregate.
func (s *Store) Run() Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run := s.run
	run.Requested = append([]grid.Address(nil), s.run.Requested...)
	return run
}

// All returns every stored result ordered by row-major address.
func (s *Store) All() []TileResult {
	s.mu.RLock()
	out := make([]TileResult, 0, len(s.results))
	for _, tr := range s.results {
		out = append(out, tr)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Address.Row != out[j].Address.Row {
			return out[i].Address.Row < out[j].Address.Row
		}
		return out[i].Address.Col < out[j].Address.Col
	})
	return out
}

// InFlight returns the requested addresses without an applied result yet, in
// enumeration order. Workers race, so this is the queue plus whatever is
// actively being processed.
func (s *Store) InFlight() []grid.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []grid.Address
	for _, a := range s.run.Requested {
		if !s.completed[a] {
			out = append(out, a)
		}
	}
	return out
}

// LastError returns the recorded per-tile error for an address, if any.
func (s *Store) LastError(addr grid.Address) (Error, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.errors[addr]
	return e, ok
}

// Reset discards all results, errors, and the run. Called when the grid is
// regenerated, since results keyed to stale geometry are meaningless.
func (s *Store) Reset() {
	s.mu.Lock()
	s.run = Run{Status: StatusIdle}
	s.completed = make(map[grid.Address]bool)
	s.results = make(map[grid.Address]TileResult)
	s.errors = make(map[grid.Address]Error)
	s.mu.Unlock()
}
