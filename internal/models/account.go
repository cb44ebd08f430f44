// Package models defines the risk-ledger data model.
package models

import (
	"time"

	"github.com/ledger-sentinel/internal/types"
)

// AccountRecord is the risk record for one observed account. Records are
// created lazily on first appearance and mutated only by the scoring engine's
// single writer; all other components read deep copies.
type AccountRecord struct {
	// TopologyScore is structural/signature-based risk in [0,1].
	TopologyScore float64 `json:"topologyScore"`
	// TemporalScore is behavioral risk from deep analysis in [0,1]; 0 until set.
	TemporalScore float64 `json:"temporalScore"`
	// PropagationScore is inherited upstream-contamination risk in [0,1].
	// It never decreases once set: it tracks the maximum observed diffusion.
	PropagationScore float64 `json:"propagationScore"`
	// FinalScore is derived from the three components and clamped to [0,1].
	FinalScore float64 `json:"finalScore"`
	// Evidence is an ordered, append-only list of distinct finding strings.
	Evidence []string `json:"evidence"`
	// TemporalReasoning is the free-text verdict from deep analysis, empty
	// until a verdict arrives.
	TemporalReasoning string `json:"temporalReasoning,omitempty"`
	// Trajectory is the append-only score history.
	Trajectory []types.RiskPoint `json:"trajectory"`
	// PrimaryAssetType is the asset type seen on first appearance.
	PrimaryAssetType string `json:"primaryAssetType,omitempty"`
	// LastUpdate is the timestamp of the most recent mutation; it is
	// monotonically non-decreasing.
	LastUpdate time.Time `json:"lastUpdate"`
}

// NewAccountRecord creates a record with the initial baseline score and a
// seed trajectory point.
func NewAccountRecord(assetType string, now time.Time) *AccountRecord {
	const baseline = 0.05
	return &AccountRecord{
		TopologyScore:    baseline,
		FinalScore:       baseline,
		Evidence:         []string{},
		Trajectory:       []types.RiskPoint{{Timestamp: now, Score: baseline}},
		PrimaryAssetType: assetType,
		LastUpdate:       now,
	}
}

// AddEvidence appends a finding string if it is not already present.
// It returns true only when the entry was newly added, so callers can
// increment exactly one agent's findings counter exactly once.
func (r *AccountRecord) AddEvidence(finding string) bool {
	for _, e := range r.Evidence {
		if e == finding {
			return false
		}
	}
	r.Evidence = append(r.Evidence, finding)
	return true
}

// RaisePropagation updates the propagation score only if the new value is
// higher, preserving monotonicity. Returns true when the score was raised.
func (r *AccountRecord) RaisePropagation(score float64) bool {
	if score <= r.PropagationScore {
		return false
	}
	r.PropagationScore = score
	return true
}

// Touch advances LastUpdate without allowing it to move backwards.
func (r *AccountRecord) Touch(now time.Time) {
	if now.After(r.LastUpdate) {
		r.LastUpdate = now
	}
}

// Clone returns a deep copy safe to hand to readers.
func (r *AccountRecord) Clone() *AccountRecord {
	cp := *r
	cp.Evidence = make([]string, len(r.Evidence))
	copy(cp.Evidence, r.Evidence)
	cp.Trajectory = make([]types.RiskPoint, len(r.Trajectory))
	copy(cp.Trajectory, r.Trajectory)
	return &cp
}
