package results

import (
	"time"

	"layout-verifier/internal/classify"
	"layout-verifier/internal/grid"
)

// TileResult is the classification outcome for one tile address. Exactly one
// exists per analyzed address; re-analysis or manual reclassification
// overwrites it.
type TileResult struct {
	Address        grid.Address    `json:"address"`
	Label          classify.Label  `json:"label"`
	Confidence     float64         `json:"confidence"`
	Rationale      string          `json:"rationale,omitempty"`
	Source         classify.Source `json:"source"`
	ReviewedByUser bool            `json:"reviewed_by_user"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
}
