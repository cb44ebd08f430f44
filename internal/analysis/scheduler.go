package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/circuitbreaker"
	"github.com/ledger-sentinel/internal/ledger"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/metrics"
	"github.com/ledger-sentinel/internal/scoring"
	"github.com/ledger-sentinel/internal/types"
)

// SelectionThreshold is the minimum final score for deep-analysis
// eligibility.
const SelectionThreshold = 0.2

// HistoryProvider supplies an account's full known transaction history.
type HistoryProvider interface {
	HistoryFor(accountID string) []types.Transaction
}

// SchedulerConfig configures the deep-analysis scheduler.
type SchedulerConfig struct {
	// CallTimeout bounds one capability call. Timeout is a retryable soft
	// failure, not a rate-limit.
	CallTimeout time.Duration
	// DispatchInterval is the minimum spacing between dispatches.
	DispatchInterval time.Duration
	// CircuitCooldown is how long deep analysis stays suspended after the
	// capability reports rate exhaustion.
	CircuitCooldown time.Duration
	// WakeInterval bounds how long the scheduler sleeps without a ledger
	// change; it lets a re-closed circuit pick up pending candidates.
	WakeInterval time.Duration
}

func (c *SchedulerConfig) withDefaults() SchedulerConfig {
	out := *c
	if out.CallTimeout <= 0 {
		out.CallTimeout = 45 * time.Second
	}
	if out.DispatchInterval <= 0 {
		out.DispatchInterval = 2 * time.Second
	}
	if out.CircuitCooldown <= 0 {
		out.CircuitCooldown = circuitbreaker.DefaultCooldown
	}
	if out.WakeInterval <= 0 {
		out.WakeInterval = 30 * time.Second
	}
	return out
}

// Scheduler picks the single best candidate account for deep behavioral
// analysis whenever the ledger changes, enforces at-most-one-in-flight, and
// merges verdicts back into the ledger.
type Scheduler struct {
	cfg        SchedulerConfig
	store      *ledger.Store
	agents     *agent.Registry
	history    HistoryProvider
	capability Capability
	breaker    *circuitbreaker.Breaker
	limiter    *rate.Limiter
	logger     *logging.Logger

	inFlight atomic.Bool
	// recheck wakes the run loop after a call completes so the next
	// candidate is selected without waiting for a ledger change.
	recheck chan struct{}
}

// NewScheduler creates a scheduler over the given collaborators.
func NewScheduler(cfg SchedulerConfig, store *ledger.Store, agents *agent.Registry, history HistoryProvider, capability Capability, logger *logging.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		cfg:        cfg,
		store:      store,
		agents:     agents,
		history:    history,
		capability: capability,
		breaker:    circuitbreaker.New(cfg.CircuitCooldown),
		limiter:    rate.NewLimiter(rate.Every(cfg.DispatchInterval), 1),
		logger:     logger.WithField("component", "scheduler"),
		recheck:    make(chan struct{}, 1),
	}
}

// Breaker exposes the circuit breaker for observability.
func (s *Scheduler) Breaker() *circuitbreaker.Breaker {
	return s.breaker
}

// Reset closes the circuit and clears the rate limiter state. The in-flight
// flag is left alone; a call already running will finish against a record
// that no longer exists and merge nothing.
func (s *Scheduler) Reset() {
	s.breaker.Reset()
	s.agents.SetStatus(agent.TemporalAnalyzer, types.AgentIdle)
}

// Run evaluates candidates on every ledger change until the context is
// cancelled. Selection is skipped while a call is in flight or the circuit
// is open.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.WakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.store.Changes():
		case <-s.recheck:
		case <-ticker.C:
		}
		s.maybeDispatch(ctx)
	}
}

func (s *Scheduler) maybeDispatch(ctx context.Context) {
	if s.inFlight.Load() {
		return
	}
	if !s.breaker.Allow() {
		return
	}
	if !s.limiter.Allow() {
		return
	}

	candidate, score := s.selectCandidate()
	if candidate == "" {
		return
	}

	s.inFlight.Store(true)
	s.logger.WithFields(map[string]interface{}{
		"account": candidate,
		"score":   score,
	}).Info("Dispatching account for deep analysis")

	go s.analyze(ctx, candidate)
}

// selectCandidate returns the eligible account with the highest final score.
// Eligible means final score above the threshold and no prior verdict. Ties
// break toward the lexicographically smallest id so selection is
// deterministic.
func (s *Scheduler) selectCandidate() (string, float64) {
	snap := s.store.Snapshot()

	var bestID string
	var bestScore float64
	for id, rec := range snap.Accounts {
		if rec.FinalScore <= SelectionThreshold || rec.TemporalReasoning != "" {
			continue
		}
		if bestID == "" || rec.FinalScore > bestScore || (rec.FinalScore == bestScore && id < bestID) {
			bestID = id
			bestScore = rec.FinalScore
		}
	}
	return bestID, bestScore
}

func (s *Scheduler) analyze(ctx context.Context, accountID string) {
	defer func() {
		s.inFlight.Store(false)
		select {
		case s.recheck <- struct{}{}:
		default:
		}
	}()

	s.agents.SetStatus(agent.TemporalAnalyzer, types.AgentProcessing)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	history := s.history.HistoryFor(accountID)
	verdict, err := s.capability.Analyze(callCtx, accountID, history)

	switch {
	case errors.Is(err, ErrRateLimited):
		// Suspend deep analysis for the cooldown. No ledger mutation, so
		// replaying this outcome is idempotent.
		s.breaker.Trip()
		s.agents.SetStatus(agent.TemporalAnalyzer, types.AgentError)
		metrics.AnalysisCalls.WithLabelValues("rate_limited").Inc()
		metrics.CircuitOpen.Set(1)
		s.logger.WithField("account", accountID).Warn("Capability rate limited, circuit opened")
		return

	case err != nil:
		// Soft failure: the account keeps no verdict and stays eligible
		// for re-selection on a later pass.
		s.agents.SetStatus(agent.TemporalAnalyzer, types.AgentIdle)
		metrics.AnalysisCalls.WithLabelValues("error").Inc()
		s.logger.WithError(err).WithField("account", accountID).Warn("Deep analysis failed")
		return
	}

	s.merge(accountID, verdict)
	s.agents.SetStatus(agent.TemporalAnalyzer, types.AgentIdle)
	metrics.AnalysisCalls.WithLabelValues("success").Inc()
	metrics.CircuitOpen.Set(0)
	s.logger.WithFields(map[string]interface{}{
		"account":    accountID,
		"confidence": verdict.Confidence,
	}).Info("Deep analysis verdict merged")
}

// merge applies a verdict under the ledger's write lock, atomically with
// respect to transaction scoring. All steps are monotonic-merge style, so
// re-applying the same verdict is idempotent.
func (s *Scheduler) merge(accountID string, verdict *Verdict) {
	s.store.Apply(time.Now(), func(st *ledger.State) {
		rec := st.Get(accountID)
		if rec == nil {
			// Account vanished in a reset while the call was in flight.
			return
		}
		rec.TemporalScore = verdict.Confidence
		if rec.TemporalReasoning != verdict.Reason {
			rec.TemporalReasoning = verdict.Reason
		}
		if rec.AddEvidence(scoring.EvidenceCorrelationPrefix + verdict.Reason) {
			s.agents.RecordFinding(agent.TemporalAnalyzer)
		}
		scoring.Aggregate(rec, time.Now())
	})
}
