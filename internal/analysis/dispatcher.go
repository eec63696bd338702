// Package analysis runs the tile classification pipeline: a bounded worker
// pool that renders tiles (cache-or-generate), submits them to the
// classification collaborators, and publishes outcomes as typed messages.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
	"layout-verifier/internal/render"
	"layout-verifier/internal/results"
	"layout-verifier/internal/tile"
	"layout-verifier/pkg/geometry"
)

// ErrNoRenderer is the configuration failure raised when a run is started
// without any renderer. It is fatal to the run before any tile is processed.
var ErrNoRenderer = errors.New("no renderer configured")

// ErrRunActive is returned when a run is started while another is in flight.
var ErrRunActive = errors.New("analysis run already active")

// Config wires a Dispatcher to its collaborators.
type Config struct {
	Grid     grid.Config
	Bounds   geometry.Rect
	Cache    *tile.Cache
	Renderer render.Renderer
	Detailed classify.Detailed   // nil = model pass disabled, fallback only
	Fast     classify.Fast       // nil = model pass disabled, fallback only
	Fallback classify.Classifier // nil = classify.NewHeuristic()
}

// Dispatcher executes analysis runs. One run at a time; Start returns the
// message channel the run publishes on, and the caller (the single consumer)
// drains it until close.
type Dispatcher struct {
	cfg Config

	mu     sync.Mutex
	active bool
	paused bool
	gate   chan struct{} // closed = not paused
	cancel context.CancelFunc
	msgs   chan results.Message

	completed atomic.Int64
}

// NewDispatcher creates a dispatcher for the given collaborators.
func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Start launches a run over the addresses with the given worker count and
// returns the run's message channel. A worker count below 1 defaults to the
// available CPU parallelism. The channel is closed exactly once, after the
// terminal StatusChanged message.
//
// Configuration failures (invalid grid, no renderer, no classifier at all)
// surface as an error here, before any tile is processed; the run never
// starts and no Failed message is published on a nil channel — the caller
// reports the failure itself.
func (d *Dispatcher) Start(ctx context.Context, addresses []grid.Address, workers int) (<-chan results.Message, error) {
	if err := d.cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	if d.cfg.Bounds.Empty() {
		return nil, fmt.Errorf("%w: layout bounds have zero area", grid.ErrInvalidGeometry)
	}
	if d.cfg.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if d.cfg.Fallback == nil && (d.cfg.Detailed == nil || d.cfg.Fast == nil) {
		return nil, errors.New("no classifier configured and no fallback available")
	}

	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(addresses) && len(addresses) > 0 {
		workers = len(addresses)
	}

	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		return nil, ErrRunActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.active = true
	d.paused = false
	d.gate = closedGate()
	d.cancel = cancel
	d.msgs = make(chan results.Message, 4*len(addresses)+16)
	d.completed.Store(0)
	msgs := d.msgs
	d.mu.Unlock()

	go d.run(runCtx, addresses, workers)
	return msgs, nil
}

func (d *Dispatcher) run(ctx context.Context, addresses []grid.Address, workers int) {
	d.publish(results.StatusChanged{Status: results.StatusRunning})

	var g errgroup.Group
	g.SetLimit(workers)

	// The address slice is the work queue; g.Go blocks once the worker
	// limit is reached, and the gate is observed before each dequeue so no
	// new work starts while paused or after cancellation.
	for _, addr := range addresses {
		if !d.waitGate(ctx) {
			break
		}
		addr := addr
		g.Go(func() error {
			d.processTile(ctx, addr, len(addresses))
			return nil
		})
	}
	_ = g.Wait()

	final := results.StatusCompleted
	if ctx.Err() != nil {
		final = results.StatusCancelled
	}

	// Teardown is one critical section: the terminal status and the close
	// land on this run's channel before the dispatcher reads as inactive,
	// so a Start racing with the teardown cannot swap the channel out from
	// under the close.
	d.mu.Lock()
	d.publishLocked(results.StatusChanged{Status: final})
	close(d.msgs)
	d.active = false
	d.cancel = nil
	d.mu.Unlock()
}

// processTile runs the per-address algorithm: cache-or-render, detailed
// pass, fast pass, fallback on any failure, then publish the result.
// Classification calls use a context detached from cancellation so an
// in-flight tile finishes cleanly after Cancel; the per-call HTTP timeout
// still bounds it.
func (d *Dispatcher) processTile(ctx context.Context, addr grid.Address, total int) {
	// A dispatch that raced with Pause holds here until Resume; one that
	// raced with Cancel starts no work and the address simply has no
	// outcome in the cancelled run.
	if !d.waitGate(ctx) {
		return
	}
	callCtx := context.WithoutCancel(ctx)

	img, placeholder := d.fetchTile(callCtx, addr)

	tr := d.classifyTile(callCtx, addr, img, placeholder)
	d.publish(results.Result{Address: addr, Tile: tr})

	done := d.completed.Add(1)
	d.publish(results.Progress{Completed: int(done), Total: total})
}

// fetchTile returns the tile image for the address at analysis resolution,
// rendering and caching on miss. A render failure substitutes the marked
// placeholder; the tile is then classified fallback-only.
func (d *Dispatcher) fetchTile(ctx context.Context, addr grid.Address) (image.Image, bool) {
	key := grid.Key{Address: addr, ResolutionPx: d.cfg.Grid.ResolutionPx}

	if entry, ok := d.cfg.Cache.Get(key); ok {
		return entry.Image, false
	}

	worldRect, err := grid.AddressWorldRect(addr, d.cfg.Grid, d.cfg.Bounds)
	if err != nil {
		// Cannot happen for addresses enumerated from the same config;
		// treat defensively as a render failure.
		d.publish(results.Error{Address: addr, Kind: results.ErrorRender, Detail: err.Error()})
		return render.Placeholder(d.cfg.Grid.ResolutionPx), true
	}

	img, err := d.cfg.Renderer.RenderTile(ctx, worldRect, d.cfg.Grid.ResolutionPx)
	if err != nil {
		log.Printf("render tile %s failed: %v", addr, err)
		d.publish(results.Error{Address: addr, Kind: results.ErrorRender, Detail: err.Error()})
		return render.Placeholder(d.cfg.Grid.ResolutionPx), true
	}

	d.cfg.Cache.Put(key, tile.NewEntry(img))
	return img, false
}

func (d *Dispatcher) classifyTile(ctx context.Context, addr grid.Address, img image.Image, placeholder bool) results.TileResult {
	if !placeholder && d.cfg.Detailed != nil && d.cfg.Fast != nil {
		tr, err := d.classifyModel(ctx, addr, img)
		if err == nil {
			return tr
		}
		log.Printf("classification for tile %s fell back: %v", addr, err)
		d.publish(results.Error{Address: addr, Kind: results.ErrorClassify, Detail: err.Error()})
	}
	return d.classifyFallback(ctx, addr, img)
}

func (d *Dispatcher) classifyModel(ctx context.Context, addr grid.Address, img image.Image) (results.TileResult, error) {
	rationale, err := d.cfg.Detailed.ClassifyDetailed(ctx, img)
	if err != nil {
		return results.TileResult{}, fmt.Errorf("detailed pass: %w", err)
	}

	label, confidence, err := d.cfg.Fast.ClassifyFast(ctx, img, rationale)
	if err != nil {
		return results.TileResult{}, fmt.Errorf("fast pass: %w", err)
	}

	return results.TileResult{
		Address:    addr,
		Label:      label,
		Confidence: confidence,
		Rationale:  rationale,
		Source:     classify.SourceModel,
		AnalyzedAt: time.Now(),
	}, nil
}

func (d *Dispatcher) classifyFallback(ctx context.Context, addr grid.Address, img image.Image) results.TileResult {
	fallback := d.cfg.Fallback
	if fallback == nil {
		fallback = classify.NewHeuristic()
	}

	rationale, _ := fallback.ClassifyDetailed(ctx, img)
	label, confidence, _ := fallback.ClassifyFast(ctx, img, rationale)

	return results.TileResult{
		Address:    addr,
		Label:      label,
		Confidence: confidence,
		Rationale:  rationale,
		Source:     classify.SourceFallback,
		AnalyzedAt: time.Now(),
	}
}

// Pause blocks workers before their next dequeue. In-flight tiles finish
// and their results are still published; no new renders or classification
// calls start while paused.
func (d *Dispatcher) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active || d.paused {
		return
	}
	d.paused = true
	d.gate = make(chan struct{})
	d.publishLocked(results.StatusChanged{Status: results.StatusPaused})
}

// Resume releases paused workers.
func (d *Dispatcher) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active || !d.paused {
		return
	}
	d.paused = false
	close(d.gate)
	d.publishLocked(results.StatusChanged{Status: results.StatusRunning})
}

// Cancel stops the run: no new work starts, in-flight tiles finish, and
// results produced so far are kept. Cancellation is "stop going forward",
// not "undo".
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Active reports whether a run is currently executing. Once it reports
// false the run's channel has already been closed, so a new run may start
// immediately.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// waitGate blocks while paused. Returns false when the run is cancelled.
func (d *Dispatcher) waitGate(ctx context.Context) bool {
	for {
		d.mu.Lock()
		gate := d.gate
		paused := d.paused
		d.mu.Unlock()

		if ctx.Err() != nil {
			return false
		}
		if !paused {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-gate:
			// Re-check: a pause may have landed again before we woke.
		}
	}
}

func (d *Dispatcher) publish(msg results.Message) {
	d.mu.Lock()
	d.publishLocked(msg)
	d.mu.Unlock()
}

func (d *Dispatcher) publishLocked(msg results.Message) {
	select {
	case d.msgs <- msg:
	default:
		// The channel is sized for the whole run; overflow means the
		// consumer is gone. Dropping beats blocking a worker forever.
		log.Printf("message channel full, dropping %T", msg)
	}
}

func closedGate() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
