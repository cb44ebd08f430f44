// Package engine serializes all transaction sources into a single update
// queue and applies the scoring pipeline to each transaction: topology rules
// and propagation for both endpoints, then score aggregation, all inside one
// ledger critical section.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/intel"
	"github.com/ledger-sentinel/internal/ledger"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/metrics"
	"github.com/ledger-sentinel/internal/scoring"
	"github.com/ledger-sentinel/internal/types"
)

// ErrStopped is returned by Submit after the engine has shut down.
var ErrStopped = errors.New("engine is stopped")

// Config configures the engine.
type Config struct {
	// QueueSize bounds the ingestion queue. When full, the oldest queued
	// transaction is shed so live feeds never stall.
	QueueSize int
	// HistorySize bounds the retained transaction window.
	HistorySize int
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = 4096
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 1000
	}
	return c
}

// Engine is the single writer of the ledger. Transactions may be submitted
// from any goroutine; scoring happens on the engine's run loop in queue
// arrival order.
type Engine struct {
	store   *ledger.Store
	agents  *agent.Registry
	sigs    *intel.SignatureSet
	history *History
	queue   chan types.Transaction
	logger  *logging.Logger
	now     func() time.Time
	stopped chan struct{}
}

// New creates an engine over the given collaborators.
func New(cfg Config, store *ledger.Store, agents *agent.Registry, sigs *intel.SignatureSet, logger *logging.Logger) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		store:   store,
		agents:  agents,
		sigs:    sigs,
		history: NewHistory(cfg.HistorySize),
		queue:   make(chan types.Transaction, cfg.QueueSize),
		logger:  logger.WithField("component", "engine"),
		now:     time.Now,
		stopped: make(chan struct{}),
	}
}

// Store returns the underlying ledger store.
func (e *Engine) Store() *ledger.Store { return e.store }

// History returns the retained transaction window.
func (e *Engine) History() *History { return e.history }

// HistoryFor returns the account's full known transaction history. It
// satisfies the analysis scheduler's HistoryProvider.
func (e *Engine) HistoryFor(accountID string) []types.Transaction {
	return e.history.For(accountID)
}

// Submit validates and enqueues a transaction. Malformed transactions are
// rejected individually and never abort the stream. Under back-pressure the
// oldest queued transaction is dropped in favor of the new one.
func (e *Engine) Submit(tx types.Transaction) error {
	if err := tx.Validate(); err != nil {
		metrics.TransactionsRejected.Inc()
		return err
	}

	select {
	case <-e.stopped:
		return ErrStopped
	default:
	}

	for {
		select {
		case e.queue <- tx:
			return nil
		default:
		}
		// Queue full: shed the oldest entry and try again.
		select {
		case <-e.queue:
			metrics.TransactionsDropped.Inc()
			e.logger.Warn("Ingestion queue full, dropped oldest transaction")
		default:
		}
	}
}

// Run consumes the queue until the context is cancelled. It is the only
// goroutine that scores transactions.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tx := <-e.queue:
			e.process(tx)
		}
	}
}

// process applies the full scoring pipeline for one transaction. The whole
// pass runs inside one ledger critical section: both endpoints are scored
// and aggregated before any reader can observe the records.
func (e *Engine) process(tx types.Transaction) {
	now := e.now()

	e.store.Apply(now, func(st *ledger.State) {
		st.CountTransaction()
		outbound := st.IncrementOutbound(tx.Source)

		// Sender first: propagation to the receiver must see the
		// sender's final score as of this transaction.
		endpoints := []string{tx.Source, tx.Dest}
		for _, id := range endpoints {
			rec := st.GetOrCreate(id, tx.AssetType)

			scoring.ApplyTopology(rec, id, id == tx.Source, outbound, e.sigs, e.agents)
			if id == tx.Dest {
				scoring.ApplyPropagation(rec, st.Get(tx.Source), e.agents)
			}
			scoring.Aggregate(rec, now)
		}
	})

	e.history.Record(tx)
	metrics.TransactionsProcessed.Inc()
	e.observe()
}

// observe refreshes the ledger-derived gauges.
func (e *Engine) observe() {
	m := e.store.Metrics(0)
	metrics.TrackedAccounts.Set(float64(e.store.AccountCount()))
	metrics.ActiveAlerts.Set(float64(m.ActiveAlerts))
	metrics.AvgRiskScore.Set(m.AvgRiskScore)
}

// Reset returns the engine to its empty initial state: ledger, outbound
// counters, history window, and agent states. The ledger clear is atomic
// with respect to ingestion; transactions still queued re-create accounts
// with first-seen behavior.
func (e *Engine) Reset() {
	e.store.Reset()
	e.history.Reset()
	e.agents.Reset()
	e.observe()
	e.logger.Info("Environment reset")
}
