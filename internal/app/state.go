// Package app provides application lifecycle management: the single owner of
// grid configuration, regions of interest, the tile cache, and the running
// analysis, exposed through named commands rather than direct field writes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"layout-verifier/internal/analysis"
	"layout-verifier/internal/classify"
	"layout-verifier/internal/export"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/layout"
	"layout-verifier/internal/render"
	"layout-verifier/internal/results"
	"layout-verifier/internal/roi"
	"layout-verifier/internal/tile"
	"layout-verifier/pkg/colorutil"
	"layout-verifier/pkg/geometry"
)

// ErrNoLayout is returned by commands that need a loaded layout.
var ErrNoLayout = errors.New("no layout loaded")

// ErrNoGrid is returned by commands that need a generated grid.
var ErrNoGrid = errors.New("no grid generated")

// ErrNoSelection is returned when an ROI run is started with no selected
// region intersecting any tile.
var ErrNoSelection = errors.New("no tiles selected")

// State holds the application state. All mutation flows through its command
// methods; background workers only ever reach it through the message channel
// drained by the consumer goroutine State starts per run.
type State struct {
	mu sync.RWMutex

	// Source layout
	LayoutPath string
	Layout     *layout.Layout

	// Grid
	gridCfg grid.Config
	hasGrid bool

	// Regions of interest (geometry owned by the presentation layer)
	regions []roi.Region

	// Tile pipeline
	cache    *tile.Cache
	renderer render.Renderer
	detailed classify.Detailed
	fast     classify.Fast
	fallback *classify.Heuristic

	dispatcher *analysis.Dispatcher
	store      *results.Store

	// Drain goroutine bookkeeping
	drainDone chan struct{}
}

// NewState creates application state with an empty cache and the fallback
// heuristic wired in.
func NewState() *State {
	return &State{
		cache:    tile.NewCache(tile.DefaultCapacity),
		fallback: classify.NewHeuristic(),
		store:    results.NewStore(),
	}
}

// Store exposes the result store's query and subscription surface.
func (s *State) Store() *results.Store {
	return s.store
}

// Cache exposes the tile cache, mainly for status reporting and tests.
func (s *State) Cache() *tile.Cache {
	return s.cache
}

// SetCacheCapacity replaces the tile cache with one of the given capacity.
func (s *State) SetCacheCapacity(capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = tile.NewCache(capacity)
}

// SetClassifiers installs the remote classification collaborators. Passing
// nils leaves the pipeline fallback-only.
func (s *State) SetClassifiers(detailed classify.Detailed, fast classify.Fast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailed = detailed
	s.fast = fast
}

// SetRenderer overrides the renderer chain, e.g. to prepend an external
// raster source in front of the layout rasterizer.
func (s *State) SetRenderer(r render.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

// LoadLayout loads a converted layout file, making its bounds the world
// space for subsequent grids. Any previous grid, cache contents, and results
// are discarded.
func (s *State) LoadLayout(path string) error {
	l, err := layout.Load(path)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	s.UseLayout(l)

	s.mu.Lock()
	s.LayoutPath = path
	s.mu.Unlock()
	return nil
}

// UseLayout installs an in-memory layout (the demo mode path).
func (s *State) UseLayout(l *layout.Layout) {
	s.mu.Lock()
	s.Layout = l
	s.LayoutPath = ""
	s.renderer = render.Chain{render.NewLayoutRenderer(l)}
	s.hasGrid = false
	s.regions = nil
	s.cache.InvalidateAll()
	s.mu.Unlock()

	s.store.Reset()
	log.Printf("layout loaded: %d elements, bounds %.1fx%.1f",
		len(l.Elements), l.Bounds.Width, l.Bounds.Height)
}

// GenerateGrid validates and installs a grid configuration. Every cached
// tile and every result keyed to the previous grid is invalidated.
func (s *State) GenerateGrid(cfg grid.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.Layout == nil {
		s.mu.Unlock()
		return ErrNoLayout
	}
	s.gridCfg = cfg
	s.hasGrid = true
	s.cache.InvalidateAll()
	s.mu.Unlock()

	s.store.Reset()
	s.store.Emit(results.EventStatusChanged, results.StatusIdle)
	log.Printf("grid generated: %dx%d, %.0f%% overlap, %dpx tiles",
		cfg.Rows, cfg.Cols, cfg.OverlapPercent, cfg.ResolutionPx)
	return nil
}

// Grid returns the current grid configuration.
func (s *State) Grid() (grid.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gridCfg, s.hasGrid
}

// Bounds returns the loaded layout's world bounds.
func (s *State) Bounds() (geometry.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Layout == nil {
		return geometry.Rect{}, false
	}
	return s.Layout.Bounds, true
}

// AddROI registers a selected region drawn by the presentation layer and
// returns its ID. The core never mutates region geometry afterwards.
func (s *State) AddROI(a, b geometry.Point2D) uuid.UUID {
	region := roi.New(a, b)
	s.mu.Lock()
	region.Color = colorutil.FormatHex(colorutil.Palette(len(s.regions)))
	s.regions = append(s.regions, region)
	s.mu.Unlock()
	return region.ID
}

// SetROIs replaces the region set wholesale, used when restoring a saved
// project.
func (s *State) SetROIs(regions []roi.Region) {
	s.mu.Lock()
	s.regions = append([]roi.Region(nil), regions...)
	s.mu.Unlock()
}

// SelectROI toggles a region's selection flag.
func (s *State) SelectROI(id uuid.UUID, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.regions {
		if s.regions[i].ID == id {
			s.regions[i].Selected = selected
			return true
		}
	}
	return false
}

// ClearROIs removes all regions.
func (s *State) ClearROIs() {
	s.mu.Lock()
	s.regions = nil
	s.mu.Unlock()
}

// ROIs returns a snapshot of the region set.
func (s *State) ROIs() []roi.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]roi.Region(nil), s.regions...)
}

// ROIAddresses computes the tile addresses intersecting any selected region.
func (s *State) ROIAddresses() ([]grid.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Layout == nil {
		return nil, ErrNoLayout
	}
	if !s.hasGrid {
		return nil, ErrNoGrid
	}
	return grid.AddressesIntersecting(s.gridCfg, s.Layout.Bounds, s.regions)
}

// StartRun launches analysis over the given addresses with the given worker
// count (0 = CPU parallelism). The store begins a new run and a consumer
// goroutine drains the dispatcher's messages into it.
func (s *State) StartRun(ctx context.Context, addresses []grid.Address, workers int) error {
	s.mu.Lock()
	if s.Layout == nil {
		s.mu.Unlock()
		return ErrNoLayout
	}
	if !s.hasGrid {
		s.mu.Unlock()
		return ErrNoGrid
	}
	for _, a := range addresses {
		if !s.gridCfg.Contains(a) {
			s.mu.Unlock()
			return fmt.Errorf("%w: address %s outside %dx%d grid",
				grid.ErrInvalidGeometry, a, s.gridCfg.Rows, s.gridCfg.Cols)
		}
	}
	if s.dispatcher != nil && s.dispatcher.Active() {
		s.mu.Unlock()
		return analysis.ErrRunActive
	}

	d := analysis.NewDispatcher(analysis.Config{
		Grid:     s.gridCfg,
		Bounds:   s.Layout.Bounds,
		Cache:    s.cache,
		Renderer: s.renderer,
		Detailed: s.detailed,
		Fast:     s.fast,
		Fallback: s.fallback,
	})
	s.dispatcher = d
	s.mu.Unlock()

	msgs, err := d.Start(ctx, addresses, workers)
	if err != nil {
		// Configuration failures are fatal to the run before any tile is
		// processed; a rejected duplicate start leaves the active run alone.
		if !errors.Is(err, analysis.ErrRunActive) {
			s.store.Apply(results.StatusChanged{Status: results.StatusFailed})
		}
		return err
	}

	s.store.BeginRun(addresses)

	done := make(chan struct{})
	s.mu.Lock()
	s.drainDone = done
	s.mu.Unlock()

	// The single consumer: the only path from workers into the store.
	go func() {
		defer close(done)
		for msg := range msgs {
			s.store.Apply(msg)
		}
	}()
	return nil
}

// StartFullRun analyzes every tile of the current grid.
func (s *State) StartFullRun(ctx context.Context, workers int) error {
	cfg, ok := s.Grid()
	if !ok {
		return ErrNoGrid
	}
	return s.StartRun(ctx, grid.AllAddresses(cfg), workers)
}

// StartROIRun analyzes the tiles intersecting the selected regions.
func (s *State) StartROIRun(ctx context.Context, workers int) error {
	addresses, err := s.ROIAddresses()
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return ErrNoSelection
	}
	return s.StartRun(ctx, addresses, workers)
}

// Pause suspends the current run after in-flight tiles finish.
func (s *State) Pause() {
	if d := s.currentDispatcher(); d != nil {
		d.Pause()
	}
}

// Resume continues a paused run.
func (s *State) Resume() {
	if d := s.currentDispatcher(); d != nil {
		d.Resume()
	}
}

// Cancel stops the current run, keeping results produced so far.
func (s *State) Cancel() {
	if d := s.currentDispatcher(); d != nil {
		d.Cancel()
	}
}

// Wait blocks until the current run's messages are fully drained.
func (s *State) Wait() {
	s.mu.RLock()
	done := s.drainDone
	s.mu.RUnlock()
	if done != nil {
		<-done
	}
}

// SetManualClassification records a reviewer's override for an address.
func (s *State) SetManualClassification(addr grid.Address, label classify.Label) error {
	if !label.Valid() {
		return fmt.Errorf("invalid label %q", label)
	}
	s.mu.RLock()
	ok := s.hasGrid && s.gridCfg.Contains(addr)
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: address %s", grid.ErrInvalidGeometry, addr)
	}

	s.store.SetManual(addr, label)
	return nil
}

// ExportRecord assembles the complete export of the current session. The
// record is guaranteed internally consistent: it never references an address
// outside the current grid.
func (s *State) ExportRecord() (*export.Record, error) {
	s.mu.RLock()
	if s.Layout == nil {
		s.mu.RUnlock()
		return nil, ErrNoLayout
	}
	if !s.hasGrid {
		s.mu.RUnlock()
		return nil, ErrNoGrid
	}
	layoutPath := s.LayoutPath
	bounds := s.Layout.Bounds
	cfg := s.gridCfg
	regions := append([]roi.Region(nil), s.regions...)
	s.mu.RUnlock()

	return export.Build(layoutPath, bounds, cfg, regions, s.store.All())
}

func (s *State) currentDispatcher() *analysis.Dispatcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatcher
}
