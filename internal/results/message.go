// Package results holds the analysis outcome state: the typed messages
// background workers publish, the per-tile results, the run aggregate, and
// the store that owns them.
package results

import (
	"layout-verifier/internal/grid"
)

// Message is published by analysis workers on the run's message channel.
// The channel is the only path by which workers affect shared state; a
// single consumer drains it and applies each message to the Store. Messages
// are self-contained and idempotent to re-apply.
type Message interface {
	isMessage()
}

// Progress reports how many of the requested tiles have reached an outcome.
type Progress struct {
	Completed int
	Total     int
}

// Result carries a finished tile classification.
type Result struct {
	Address grid.Address
	Tile    TileResult
}

// ErrorKind categorizes per-tile failures carried by Error messages.
type ErrorKind string

const (
	ErrorRender   ErrorKind = "render"
	ErrorClassify ErrorKind = "classify"
	ErrorConfig   ErrorKind = "config"
)

// Error reports a per-tile or configuration failure. Per-tile failures are
// always followed by a fallback Result for the same address; they never
// terminate the run.
type Error struct {
	Address grid.Address
	Kind    ErrorKind
	Detail  string
}

// StatusChanged reports a run status transition.
type StatusChanged struct {
	Status Status
}

func (Progress) isMessage()      {}
func (Result) isMessage()        {}
func (Error) isMessage()         {}
func (StatusChanged) isMessage() {}
