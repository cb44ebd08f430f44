// Command sentinel runs the suspicion scoring engine: ingestion feeds, the
// scoring pipeline, the deep-analysis scheduler, and the read API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ledger-sentinel/internal/agent"
	"github.com/ledger-sentinel/internal/analysis"
	"github.com/ledger-sentinel/internal/api"
	"github.com/ledger-sentinel/internal/config"
	"github.com/ledger-sentinel/internal/engine"
	"github.com/ledger-sentinel/internal/feed"
	"github.com/ledger-sentinel/internal/intel"
	"github.com/ledger-sentinel/internal/ledger"
	"github.com/ledger-sentinel/internal/logging"
	"github.com/ledger-sentinel/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.LevelError, logging.FormatText).Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && err != context.Canceled {
		logger.WithError(err).Error("Sentinel exited with error")
		os.Exit(1)
	}
	logger.Info("Sentinel stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	sigs := intel.NewSignatureSet(
		append(append([]string{}, intel.DefaultSeeds...), cfg.Intel.ExtraSeeds...),
		append(append([]string{}, intel.DefaultMarkers...), cfg.Intel.ExtraMarkers...),
	)

	store := ledger.NewStore()
	agents := agent.NewRegistry()
	eng := engine.New(engine.Config{
		QueueSize:   cfg.Engine.QueueSize,
		HistorySize: cfg.Engine.HistorySize,
	}, store, agents, sigs, logger)

	meter := feed.NewMeter()
	sink := feed.Metered(eng, meter)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return eng.Run(ctx) })

	var scheduler *analysis.Scheduler
	if cfg.Analysis.Endpoint != "" {
		capability := analysis.NewHTTPCapability(cfg.Analysis.Endpoint, cfg.Analysis.APIKey, cfg.Analysis.CallTimeout)
		scheduler = analysis.NewScheduler(analysis.SchedulerConfig{
			CallTimeout:      cfg.Analysis.CallTimeout,
			DispatchInterval: cfg.Analysis.DispatchInterval,
			CircuitCooldown:  cfg.Analysis.CircuitCooldown,
		}, store, agents, eng, capability, logger)
		g.Go(func() error { return scheduler.Run(ctx) })
	} else {
		logger.Warn("No analysis endpoint configured, deep analysis disabled")
	}

	if cfg.Intel.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Intel.RedisAddr,
			Password: cfg.Intel.RedisPassword,
			DB:       cfg.Intel.RedisDB,
		})
		refresher := intel.NewRefresher(client, sigs, cfg.Intel.RefreshInterval, logger)
		g.Go(func() error { return refresher.Run(ctx) })
	}

	if cfg.Feeds.LiveEnabled {
		live := feed.NewLive(cfg.Feeds.LiveURL, sink, logger)
		g.Go(func() error { return live.Run(ctx) })
	}
	if cfg.Feeds.SyntheticEnabled {
		synthetic := feed.NewSynthetic(sink, cfg.Feeds.SyntheticInterval, cfg.Feeds.SyntheticSeed, logger)
		g.Go(func() error { return synthetic.Run(ctx) })
	}

	// Reset clears the ledger and agent states and re-closes the analysis
	// circuit, so a fresh run starts clean.
	resetter := api.ResetFunc(func() {
		eng.Reset()
		if scheduler != nil {
			scheduler.Reset()
		}
	})

	server := api.NewServer(api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, store, agents, eng.History(), meter, resetter, logger)
	g.Go(func() error { return server.Run(ctx) })

	return g.Wait()
}
