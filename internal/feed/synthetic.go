package feed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-sentinel/internal/intel"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/types"
)

// Mule identifiers used by the synthetic generator.
var syntheticMules = []string{
	"mule_alpha_7", "mule_beta_2", "mule_gamma_9", "node_obf_102", "mixer_input_01",
}

// peelingBurstLength is how many small peels follow one seeded move.
const peelingBurstLength = 5

// Synthetic emits a background stream of transfers seeded with peeling-chain
// patterns: occasionally a known-bad seed moves a large amount to a mule,
// which then peels small amounts to fresh destinations.
type Synthetic struct {
	sink     Sink
	interval time.Duration
	rng      *rand.Rand
	logger   *logging.Logger

	peelingSource string
	peelingCount  int
}

// NewSynthetic creates a generator. A zero interval defaults to 2.5s, the
// cadence the simulated stream has always used.
func NewSynthetic(sink Sink, interval time.Duration, seed int64, logger *logging.Logger) *Synthetic {
	if interval <= 0 {
		interval = 2500 * time.Millisecond
	}
	return &Synthetic{
		sink:     sink,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger.WithField("component", "synthetic-feed"),
	}
}

// Run emits transactions until the context is cancelled.
func (s *Synthetic) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Synthetic feed started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tx := s.next()
			if err := s.sink.Submit(tx); err != nil {
				s.logger.WithError(err).Warn("Synthetic feed submit failed")
			}
		}
	}
}

// next produces one transaction following the three-pattern mix: continue an
// active peeling burst, occasionally start one from a seed, otherwise noise.
func (s *Synthetic) next() types.Transaction {
	asset := "Bitcoin"
	if s.rng.Float64() > 0.5 {
		asset = "Ethereum"
	}

	var source, dest string
	var amount float64

	switch {
	case s.peelingSource != "" && s.peelingCount < peelingBurstLength:
		source = s.peelingSource
		dest = s.randomAddress()
		amount = 0.05 + s.rng.Float64()*0.1
		s.peelingCount++
		if s.peelingCount >= peelingBurstLength {
			s.peelingSource = ""
		}

	case s.rng.Float64() > 0.85:
		source = intel.DefaultSeeds[s.rng.Intn(len(intel.DefaultSeeds))]
		dest = syntheticMules[s.rng.Intn(len(syntheticMules))]
		amount = 10.0 + s.rng.Float64()*5
		s.peelingSource = dest
		s.peelingCount = 0

	default:
		source = s.randomAddress()
		dest = s.randomAddress()
		amount = s.rng.Float64() * 2
	}

	return types.Transaction{
		Source:    source,
		Dest:      dest,
		Timestamp: time.Now(),
		Amount:    amount,
		AssetType: asset,
		Hash:      uuid.NewString(),
	}
}

func (s *Synthetic) randomAddress() string {
	return fmt.Sprintf("0x%06x", s.rng.Intn(0xFFFFFF))
}
