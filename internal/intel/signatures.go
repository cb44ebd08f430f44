// Package intel manages the signature intelligence used by the topology
// scorer: known illicit seed identifiers and suspicious substring markers.
//
// The built-in defaults are always present. When a Redis intel store is
// configured, additional seeds and markers are merged in from shared sets so
// multiple deployments can share a curated list.
package intel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledger-sentinel/internal/logging"
)

// Built-in seed identifiers and markers.
var (
	DefaultSeeds = []string{
		"wallet_bad_001",
		"wallet_bad_002",
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
	}
	DefaultMarkers = []string{"0xbad", "1a1zp1", "bc1q", "mix", "mule", "mixer"}
)

// Redis set keys for shared intel.
const (
	SeedsKey   = "sentinel:intel:seeds"
	MarkersKey = "sentinel:intel:markers"
)

// SignatureSet holds the current seed identifiers and markers. It is safe
// for concurrent use; the scorer reads it on every transaction while a
// refresher may replace the contents.
type SignatureSet struct {
	mu      sync.RWMutex
	seeds   map[string]struct{}
	markers []string
}

// NewSignatureSet creates a set from the given seeds and markers. Markers
// are lowercased on insert; matching is case-insensitive.
func NewSignatureSet(seeds, markers []string) *SignatureSet {
	s := &SignatureSet{}
	s.Replace(seeds, markers)
	return s
}

// DefaultSignatureSet returns a set with the built-in defaults.
func DefaultSignatureSet() *SignatureSet {
	return NewSignatureSet(DefaultSeeds, DefaultMarkers)
}

// Replace swaps in a new seed and marker list.
func (s *SignatureSet) Replace(seeds, markers []string) {
	seedSet := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		if seed != "" {
			seedSet[seed] = struct{}{}
		}
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}
	s.mu.Lock()
	s.seeds = seedSet
	s.markers = lowered
	s.mu.Unlock()
}

// Matches reports whether the account id is a known seed identifier or
// case-insensitively contains any suspicious marker.
func (s *SignatureSet) Matches(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.seeds[accountID]; ok {
		return true
	}
	lower := strings.ToLower(accountID)
	for _, m := range s.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Counts returns the number of seeds and markers currently loaded.
func (s *SignatureSet) Counts() (seeds, markers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seeds), len(s.markers)
}

// Refresher periodically merges shared intel from Redis into a signature set.
type Refresher struct {
	client   *redis.Client
	set      *SignatureSet
	interval time.Duration
	logger   *logging.Logger
}

// NewRefresher creates a refresher. Interval must be positive.
func NewRefresher(client *redis.Client, set *SignatureSet, interval time.Duration, logger *logging.Logger) *Refresher {
	return &Refresher{client: client, set: set, interval: interval, logger: logger}
}

// RefreshOnce loads the shared seed and marker sets and merges them with the
// built-in defaults. Missing keys are treated as empty sets.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	extraSeeds, err := r.client.SMembers(ctx, SeedsKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to load seed intel: %w", err)
	}
	extraMarkers, err := r.client.SMembers(ctx, MarkersKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to load marker intel: %w", err)
	}

	r.set.Replace(
		append(append([]string{}, DefaultSeeds...), extraSeeds...),
		append(append([]string{}, DefaultMarkers...), extraMarkers...),
	)

	seeds, markers := r.set.Counts()
	r.logger.WithFields(map[string]interface{}{
		"seeds":   seeds,
		"markers": markers,
	}).Debug("Signature intel refreshed")
	return nil
}

// Run refreshes immediately and then on every interval until the context is
// cancelled. Refresh failures are logged and retried on the next tick; the
// previous set stays in effect.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.RefreshOnce(ctx); err != nil {
		r.logger.WithError(err).Warn("Initial intel refresh failed, using defaults")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.WithError(err).Warn("Intel refresh failed")
			}
		}
	}
}
