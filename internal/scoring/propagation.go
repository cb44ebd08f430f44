package scoring

import (
	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/models"
)

const (
	// DiffusionFloor is the sender final score below which no suspicion
	// propagates.
	DiffusionFloor = 0.1
	// DiffusionFactor scales the sender's final score into the receiver's
	// inherited contamination.
	DiffusionFactor = 0.9
)

// ApplyPropagation diffuses suspicion from the transaction's sender to the
// receiver. The diffusion is one-hop and forward-only: it uses the sender's
// score as of this transaction, and later increases to the sender never
// re-propagate to already-processed receivers.
//
// The receiver's propagation score only ever increases; it tracks the
// maximum observed upstream contamination.
func ApplyPropagation(receiver, sender *models.AccountRecord, agents *agent.Registry) {
	if sender == nil || sender.FinalScore <= DiffusionFloor {
		return
	}
	diffusion := sender.FinalScore * DiffusionFactor
	if receiver.RaisePropagation(diffusion) {
		if receiver.AddEvidence(EvidenceContamination) {
			agents.RecordFinding(agent.PropagationEngine)
		}
	}
}
