// Package types provides common type definitions shared across the sentinel system.
package types

import (
	"errors"
	"fmt"
	"time"
)

// AgentStatus represents the operational state of an analysis agent.
type AgentStatus string

const (
	// AgentIdle means the agent is waiting for work.
	AgentIdle AgentStatus = "IDLE"
	// AgentProcessing means the agent has a call in flight.
	AgentProcessing AgentStatus = "PROCESSING"
	// AgentError means the agent's last call ended in a non-recoverable condition.
	AgentError AgentStatus = "ERROR"
)

// ErrMissingAccountID is returned when a transaction omits either endpoint.
var ErrMissingAccountID = errors.New("transaction is missing an account id")

// Transaction is one observed ledger transfer. Transactions are immutable and
// processed strictly in arrival order.
type Transaction struct {
	Source    string    `json:"source"`
	Dest      string    `json:"dest"`
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount"`
	AssetType string    `json:"assetType"`
	Hash      string    `json:"hash,omitempty"`
}

// Validate checks that the transaction is structurally processable.
// A malformed transaction is rejected individually; it never aborts the stream.
func (t *Transaction) Validate() error {
	if t.Source == "" || t.Dest == "" {
		return ErrMissingAccountID
	}
	if t.Amount < 0 {
		return fmt.Errorf("transaction amount must be non-negative, got %f", t.Amount)
	}
	return nil
}

// Touches reports whether the transaction involves the given account
// as either sender or receiver.
func (t *Transaction) Touches(accountID string) bool {
	return t.Source == accountID || t.Dest == accountID
}

// RiskPoint is one immutable sample of an account's score trajectory,
// appended on every score change. Audit/history only, never mutated.
type RiskPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}
