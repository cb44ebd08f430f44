package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/types"
)

// Replay feeds newline-delimited JSON transaction records from a file,
// optionally pacing them to simulate a live stream.
type Replay struct {
	path   string
	delay  time.Duration
	sink   Sink
	logger *logging.Logger
}

// NewReplay creates a replay feed. A zero delay replays as fast as the
// engine accepts.
func NewReplay(path string, delay time.Duration, sink Sink, logger *logging.Logger) *Replay {
	return &Replay{path: path, delay: delay, sink: sink, logger: logger.WithField("component", "replay-feed")}
}

// Run replays the file once. Unparseable lines are skipped and counted;
// malformed transactions are rejected by the sink and likewise skipped.
func (r *Replay) Run(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	submitted, skipped, err := r.pump(ctx, f)
	if err != nil {
		return err
	}

	r.logger.WithFields(map[string]interface{}{
		"submitted": submitted,
		"skipped":   skipped,
	}).Info("Replay complete")
	return nil
}

func (r *Replay) pump(ctx context.Context, src io.Reader) (submitted, skipped int, err error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return submitted, skipped, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var tx types.Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			skipped++
			continue
		}
		if tx.Timestamp.IsZero() {
			tx.Timestamp = time.Now()
		}

		if err := r.sink.Submit(tx); err != nil {
			skipped++
			continue
		}
		submitted++

		if r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return submitted, skipped, ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return submitted, skipped, fmt.Errorf("replay read failed: %w", err)
	}
	return submitted, skipped, nil
}
