// Command nyiso-api runs the C11 read-only HTTP surface and, unless
// disabled, the C8 scheduler in the background of the same process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/api"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/cache"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/config"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/fetch"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/interconnect"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/jobs"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/logging"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/metrics"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/orchestrator"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/refdata"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/scheduler"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nyiso-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	log := logging.Component("api")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.DB.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	tel := telemetry.NewRegistry()
	engine := metrics.NewEngine(st.DB)
	icView := interconnect.NewView(st.DB)
	c := cache.New(cfg.RedisURL)
	defer c.Close()

	srvCfg := api.DefaultConfig(cfg.Addr())
	srvCfg.AllowedOrigins = cfg.AllowedOrigins
	srv := api.New(srvCfg, st, engine, icView, c, tel, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if cfg.SchedulerEnabled {
		httpCfg := fetch.DefaultConfig()
		httpCfg.Timeout = cfg.HTTPClientTimeout
		httpCfg.MaxRetries = cfg.HTTPMaxRetries
		httpCfg.MaxConcurrency = cfg.HTTPMaxConcurrency
		client := fetch.New(httpCfg).WithTelemetry(tel)
		tracker := jobs.NewTracker(st.DB)
		resolver := refdata.New(st.DB)
		orch := orchestrator.New(reg, client, tracker, resolver, st, tel, log)
		sched := scheduler.New(reg, orch, cfg.WorkerPoolSize, tel, log)

		go sched.Run(ctx)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
