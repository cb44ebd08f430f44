// Command replay feeds a transaction file through an in-process scoring
// engine and prints the ranked suspects. Useful for scoring an export
// offline without standing up the full service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/engine"
	"github.com/ledger-sentinel/internal/feed"
	"github.com/ledger-sentinel/internal/intel"
	"github.com/ledger-sentinel/internal/ledger"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/metrics"
)

func main() {
	var (
		path      = flag.String("file", "", "path to newline-delimited JSON transaction file (required)")
		threshold = flag.Float64("threshold", 0.3, "minimum final score to report")
		limit     = flag.Int("limit", 20, "maximum suspects to print")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -file transactions.jsonl [-threshold 0.3] [-limit 20]")
		os.Exit(2)
	}

	logger := logging.New(logging.LevelWarn, logging.FormatText)
	metrics.Register()

	store := ledger.NewStore()
	agents := agent.NewRegistry()
	eng := engine.New(engine.Config{HistorySize: 100000}, store, agents, intel.DefaultSignatureSet(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)

	replay := feed.NewReplay(*path, 0, eng, logger)
	if err := replay.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}

	// Wait for the engine to drain the queue: stop once the processed
	// count holds steady.
	deadline := time.Now().Add(30 * time.Second)
	last := int64(-1)
	for time.Now().Before(deadline) {
		n := store.Snapshot().TotalTransactions
		if n == last {
			break
		}
		last = n
		time.Sleep(100 * time.Millisecond)
	}
	cancel()

	printSuspects(store, *threshold, *limit)
}

func printSuspects(store *ledger.Store, threshold float64, limit int) {
	snap := store.Snapshot()

	type ranked struct {
		id    string
		score float64
		hint  string
	}
	var suspects []ranked
	for id, rec := range snap.Accounts {
		if rec.FinalScore <= threshold {
			continue
		}
		hint := ""
		if len(rec.Evidence) > 0 {
			hint = rec.Evidence[0]
		}
		suspects = append(suspects, ranked{id: id, score: rec.FinalScore, hint: hint})
	}
	sort.Slice(suspects, func(i, j int) bool {
		if suspects[i].score != suspects[j].score {
			return suspects[i].score > suspects[j].score
		}
		return suspects[i].id < suspects[j].id
	})
	if limit > 0 && len(suspects) > limit {
		suspects = suspects[:limit]
	}

	fmt.Printf("Processed %d transactions, %d accounts tracked\n\n", snap.TotalTransactions, len(snap.Accounts))
	fmt.Printf("%-44s %7s  %s\n", "ACCOUNT", "SCORE", "EVIDENCE")
	for _, s := range suspects {
		fmt.Printf("%-44s %6.1f%%  %s\n", s.id, s.score*100, s.hint)
	}
}
