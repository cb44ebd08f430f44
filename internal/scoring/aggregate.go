package scoring

import (
	"time"

	"github.com/ledger-sentinel/internal/models"
	"github.com/ledger-sentinel/internal/types"
)

// Component weights for the final score. They sum to 1.0; the clamp below
// guards against drift if they are ever retuned.
const (
	WeightTopology    = 0.3
	WeightTemporal    = 0.5
	WeightPropagation = 0.2
)

// Aggregate recombines the three component scores into the final score,
// clamps it to [0,1], appends a trajectory sample, and advances LastUpdate.
// It runs once per affected account per transaction and once after each
// deep-analysis merge.
func Aggregate(rec *models.AccountRecord, now time.Time) {
	score := WeightTopology*rec.TopologyScore +
		WeightTemporal*rec.TemporalScore +
		WeightPropagation*rec.PropagationScore
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	rec.FinalScore = score
	rec.Trajectory = append(rec.Trajectory, types.RiskPoint{Timestamp: now, Score: score})
	rec.Touch(now)
}
