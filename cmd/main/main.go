package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mark-price-dashboard/src/config"
	"mark-price-dashboard/src/feed"
	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/scheduler"
	"mark-price-dashboard/src/server"
	"mark-price-dashboard/src/snapshot"
	"mark-price-dashboard/src/store"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Optional .env overlay for endpoint overrides
	_ = godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.Name)

	// 1. Core components
	st := store.New(cfg.MConfig, logger.NewLogger("Store"))

	fetcher := snapshot.NewFetcher(cfg.Network, logger.NewLogger("Fetcher"))
	loader := snapshot.NewLoader(cfg.Snapshot, fetcher, logger.NewLogger("SnapshotLoader"))

	feedClient := feed.NewClient(cfg.Feed, cfg.Timezone, logger.NewLogger("Feed"))

	srv := server.NewViewServer(cfg.MConfig, st, logger.NewLogger("ViewServer"))

	sched := scheduler.NewRefreshScheduler(st, logger.NewLogger("Scheduler"))
	if err := sched.Register(cfg.Snapshot.FallbackCron); err != nil {
		appLogger.Critical("Failed to register fallback refresh: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Reload loop: serialize reload requests, run loads concurrently.
	// Stale completions are discarded by the store via the generation number.
	go func() {
		for range st.ReloadRequests() {
			gen := st.NextLoadGeneration()
			go func(gen int64) {
				snap, err := loader.Load(ctx)
				if err != nil {
					appLogger.Error("Snapshot load failed: %v", err)
					return
				}
				st.OnSnapshotLoaded(snap, gen)
			}(gen)
		}
	}()

	// Initial load
	st.RequestReload()

	// 3. Tick loop
	sub := feedClient.Subscribe()
	go func() {
		for {
			tick, err := sub.Next(ctx)
			if err != nil {
				if errors.Is(err, feed.ErrClosed) || ctx.Err() != nil {
					return
				}
				appLogger.Error("Tick stream error: %v", err)
				return
			}
			st.OnTick(tick)
		}
	}()

	// 4. Fallback refresh + view server
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("View server failed: %v", err)
		}
	}()

	appLogger.Info("%s started", cfg.Name)

	// 5. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLogger.Info("Received signal %v, shutting down", sig)

	sub.Unsubscribe()
	sched.Stop()
	srv.Stop()
	cancel()
}
