// Package scoring implements the per-transaction scoring rules: structural
// signature matching, sequential-layering detection, one-hop contamination
// diffusion, and the weighted final-score aggregation.
//
// All functions mutate records in place and must be called from inside a
// ledger.Store.Apply critical section so a transaction's full scoring pass
// is atomic.
package scoring

import (
	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/intel"
	"github.com/ledger-sentinel/internal/models"
)

const (
	// SignatureScore is assigned on a seed or marker match.
	SignatureScore = 1.0
	// PeelingThreshold is the outbound transfer count at which sequential
	// layering is flagged.
	PeelingThreshold = 3
	// PeelingScore is the minimum topology score for a flagged sender.
	// The rule raises, never lowers.
	PeelingScore = 0.85
)

// Evidence strings. Dedup is by exact text, so these are fixed.
const (
	EvidenceSignature     = "[SIGNATURE] Matched Illicit Seed"
	EvidencePeeling       = "[PEELING] Sequential Layering Detected"
	EvidenceContamination = "[CONTAMINATION] Indirect Exposure"
	// EvidenceCorrelationPrefix prefixes the deep-analysis verdict.
	EvidenceCorrelationPrefix = "[CORRELATION] "
)

// ApplyTopology runs the structural rules for one endpoint of a transaction.
// isSender must be true when the account is the transaction's source;
// outboundCount is the sender's running outbound counter after this
// transaction.
func ApplyTopology(rec *models.AccountRecord, accountID string, isSender bool, outboundCount int64, sigs *intel.SignatureSet, agents *agent.Registry) {
	if sigs.Matches(accountID) {
		rec.TopologyScore = SignatureScore
		if rec.AddEvidence(EvidenceSignature) {
			agents.RecordFinding(agent.GraphMiner)
		}
	}

	if isSender && outboundCount >= PeelingThreshold {
		if rec.TopologyScore < PeelingScore {
			rec.TopologyScore = PeelingScore
		}
		if rec.AddEvidence(EvidencePeeling) {
			agents.RecordFinding(agent.PeelingDetector)
		}
	}
}
