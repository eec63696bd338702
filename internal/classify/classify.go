// Package classify provides the tile classification collaborators: the
// remote two-model service client and the deterministic local fallback.
package classify

import (
	"context"
	"errors"
	"image"
)

// Label is the discrete three-way classification of a tile.
type Label string

const (
	// Continuity means waveguides in the tile are smooth and aligned.
	Continuity Label = "continuity"
	// Discontinuity means a break, step, or misalignment was found.
	Discontinuity Label = "discontinuity"
	// NoWaveguide means the tile holds only background geometry.
	NoWaveguide Label = "no_waveguide"
)

// Valid reports whether the label is one of the three known values.
func (l Label) Valid() bool {
	switch l {
	case Continuity, Discontinuity, NoWaveguide:
		return true
	}
	return false
}

// Source records how a tile's classification was produced.
type Source string

const (
	// SourceModel means the remote classification service produced the result.
	SourceModel Source = "model"
	// SourceFallback means the local heuristic produced the result after the
	// service failed or the tile image was a placeholder.
	SourceFallback Source = "fallback"
	// SourceManual means a reviewer overrode the classification.
	SourceManual Source = "manual"
)

// Service failure modes. All of them route the tile to the fallback
// heuristic rather than failing the run.
var (
	ErrServiceUnavailable = errors.New("classification service unavailable")
	ErrQuotaExceeded      = errors.New("classification quota exceeded")
	ErrInvalidInput       = errors.New("classification input rejected")
)

// Detailed produces a free-text rationale describing waveguide continuity in
// the tile image. Slow, network-bound, may be rate limited.
type Detailed interface {
	ClassifyDetailed(ctx context.Context, img image.Image) (rationale string, err error)
}

// Fast reduces a tile to a discrete label. The detailed pass's rationale is
// provided as extra context; implementations may use it or the image alone.
type Fast interface {
	ClassifyFast(ctx context.Context, img image.Image, rationale string) (Label, float64, error)
}

// Classifier combines both passes. The service client and the fallback
// heuristic each implement it.
type Classifier interface {
	Detailed
	Fast
}
