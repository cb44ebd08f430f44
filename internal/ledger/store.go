// Package ledger provides the authoritative mapping from account id to risk
// record. A single logical writer funnels all mutations through Apply, which
// holds the write lock for an entire transaction's scoring pass so readers
// never observe a partially updated record.
package ledger

import (
	"sync"
	"time"

	"github.com/ledger-sentinel/internal/models"
)

// Store owns the ledger state: account records, per-account outbound
// transfer counters, and the running transaction count.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.AccountRecord
	outbound map[string]int64
	txCount  int64

	// changes coalesces mutation notifications for the analysis scheduler.
	changes chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*models.AccountRecord),
		outbound: make(map[string]int64),
		changes:  make(chan struct{}, 1),
	}
}

// State is the view handed to an Apply callback. It is only valid for the
// duration of the callback and must not escape it.
type State struct {
	s   *Store
	now time.Time
}

// Apply runs fn under the store's exclusive write lock and then emits a
// change notification. All multi-step mutations (one transaction's scoring
// pass, a deep-analysis merge) go through here so they are atomic with
// respect to each other and to snapshot readers.
func (s *Store) Apply(now time.Time, fn func(*State)) {
	s.mu.Lock()
	fn(&State{s: s, now: now})
	s.mu.Unlock()
	s.signal()
}

// signal performs a non-blocking send so notifications coalesce.
func (s *Store) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Changes returns the coalesced change-notification channel. One receive may
// cover any number of mutations.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Get returns the record for the account, or nil if it has not been seen.
func (st *State) Get(accountID string) *models.AccountRecord {
	return st.s.accounts[accountID]
}

// GetOrCreate returns the account's record, creating it with baseline
// values and the transaction's asset type on first appearance.
func (st *State) GetOrCreate(accountID, assetType string) *models.AccountRecord {
	if rec, ok := st.s.accounts[accountID]; ok {
		return rec
	}
	rec := models.NewAccountRecord(assetType, st.now)
	st.s.accounts[accountID] = rec
	return rec
}

// CountTransaction increments the global transaction counter.
func (st *State) CountTransaction() {
	st.s.txCount++
}

// IncrementOutbound bumps the sender's outbound transfer counter and returns
// the new count. Counters are monotonic until a full reset.
func (st *State) IncrementOutbound(accountID string) int64 {
	st.s.outbound[accountID]++
	return st.s.outbound[accountID]
}

// Outbound returns the account's current outbound transfer count.
func (st *State) Outbound(accountID string) int64 {
	return st.s.outbound[accountID]
}

// Snapshot is an immutable deep copy of the ledger for readers.
type Snapshot struct {
	Accounts          map[string]*models.AccountRecord `json:"accounts"`
	TotalTransactions int64                            `json:"totalTransactions"`
	TakenAt           time.Time                        `json:"takenAt"`
}

// Snapshot returns a deep copy of the current ledger state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make(map[string]*models.AccountRecord, len(s.accounts))
	for id, rec := range s.accounts {
		accounts[id] = rec.Clone()
	}
	return &Snapshot{
		Accounts:          accounts,
		TotalTransactions: s.txCount,
		TakenAt:           time.Now(),
	}
}

// Metrics derives the global summary from the current state. Velocity comes
// from the ingestion collaborator and is passed through untouched.
func (s *Store) Metrics(velocity float64) models.GlobalMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := models.GlobalMetrics{
		TotalTransactions: s.txCount,
		NetworkVelocity:   velocity,
	}
	if len(s.accounts) == 0 {
		return m
	}
	var sum float64
	for _, rec := range s.accounts {
		sum += rec.FinalScore
		if rec.FinalScore > models.AlertThreshold {
			m.ActiveAlerts++
		}
	}
	m.AvgRiskScore = sum / float64(len(s.accounts))
	return m
}

// AccountCount returns the number of tracked accounts.
func (s *Store) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Reset clears all accounts, outbound counters, and the transaction count.
// It holds the write lock, so it is atomic with respect to ingestion.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = make(map[string]*models.AccountRecord)
	s.outbound = make(map[string]int64)
	s.txCount = 0
	s.mu.Unlock()
	s.signal()
}
