// Command nyiso is the scrape/schedule CLI: the spec's three verbs
// (scrape --date, scrape --days, schedule) over the same orchestrator the
// HTTP API's background ingestion loop uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/config"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/fetch"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/jobs"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/logging"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/orchestrator"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/refdata"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/scheduler"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/telemetry"
)

// Exit codes per spec.md's CLI surface.
const (
	exitSuccess     = 0
	exitConfigError = 1
	exitRuntimeErr  = 2
	exitInterrupted = 130
)

var (
	flagDate  string
	flagDays  int
	flagCode  []string
	flagForce bool
	flagOnce  bool
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "nyiso",
		Short:         "NYISO market-data ingestion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one date, or the last N days, for one or more sources",
		RunE:  runScrape,
	}
	scrapeCmd.Flags().StringVar(&flagDate, "date", "", "date to scrape, YYYY-MM-DD")
	scrapeCmd.Flags().IntVar(&flagDays, "days", 0, "scrape the last N days instead of a single date")
	scrapeCmd.Flags().StringSliceVar(&flagCode, "code", nil, "restrict to these source codes (default: all)")
	scrapeCmd.Flags().BoolVar(&flagForce, "force", false, "re-scrape even if a successful job already exists")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the cadence-driven scheduler until interrupted",
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().BoolVar(&flagOnce, "run-once", false, "run a single warm-up pass over every source, then exit")

	root.AddCommand(scrapeCmd, scheduleCmd)

	if err := root.Execute(); err != nil {
		if ce, ok := asExitCoder(err); ok {
			fmt.Fprintf(os.Stderr, "nyiso: %v\n", err)
			return ce
		}
		fmt.Fprintf(os.Stderr, "nyiso: %v\n", err)
		return exitRuntimeErr
	}
	return exitSuccess
}

// exitCodeError lets a command signal a specific exit code without the
// caller re-deriving it from error type.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func asExitCoder(err error) (int, bool) {
	if ec, ok := err.(*exitCodeError); ok {
		return ec.code, true
	}
	return 0, false
}

// bootstrap wires config, logging, the registry, and the store common to
// every verb. Failures here are always config errors (exit 1): nothing has
// touched the network or a job record yet.
func bootstrap(ctx context.Context) (cfg config.Config, log zerolog.Logger, reg *registry.Registry, st *store.Store, err error) {
	cfg = config.Load()
	logging.Init(cfg.LogLevel)
	log = logging.Component("cli")

	reg, err = registry.Load(cfg.RegistryPath)
	if err != nil {
		return cfg, log, nil, nil, &exitCodeError{exitConfigError, fmt.Errorf("load registry: %w", err)}
	}

	st, err = store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return cfg, log, nil, nil, &exitCodeError{exitConfigError, fmt.Errorf("open store: %w", err)}
	}
	if err := st.Migrate(ctx); err != nil {
		return cfg, log, nil, nil, &exitCodeError{exitConfigError, fmt.Errorf("migrate store: %w", err)}
	}
	return cfg, log, reg, st, nil
}

func newOrchestrator(cfg config.Config, reg *registry.Registry, st *store.Store, log zerolog.Logger) *orchestrator.Orchestrator {
	tel := telemetry.NewRegistry()
	httpCfg := fetch.DefaultConfig()
	httpCfg.Timeout = cfg.HTTPClientTimeout
	httpCfg.MaxRetries = cfg.HTTPMaxRetries
	httpCfg.MaxConcurrency = cfg.HTTPMaxConcurrency
	client := fetch.New(httpCfg).WithTelemetry(tel)

	tracker := jobs.NewTracker(st.DB)
	resolver := refdata.New(st.DB)
	return orchestrator.New(reg, client, tracker, resolver, st, tel, log)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, log, reg, st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer st.DB.Close()

	if flagDate == "" && flagDays == 0 {
		return &exitCodeError{exitConfigError, fmt.Errorf("scrape: exactly one of --date or --days is required")}
	}
	if flagDate != "" && flagDays != 0 {
		return &exitCodeError{exitConfigError, fmt.Errorf("scrape: --date and --days are mutually exclusive")}
	}

	sources, err := resolveSources(reg, flagCode)
	if err != nil {
		return &exitCodeError{exitConfigError, err}
	}

	orch := newOrchestrator(cfg, reg, st, log)

	var ranAny bool
	var hadFailure bool

	if flagDays > 0 {
		end := time.Now().UTC().Truncate(24 * time.Hour)
		start := end.AddDate(0, 0, -(flagDays - 1))
		for _, source := range sources {
			var results []jobs.Job
			if source.IsSnapshot() {
				job, _ := orch.ScrapeOne(ctx, source, end, flagForce)
				results = append(results, job)
			} else {
				results, _ = orch.ScrapeRange(ctx, source, start, end, flagForce)
			}
			if ctx.Err() != nil {
				return &exitCodeError{exitInterrupted, ctx.Err()}
			}
			for _, j := range results {
				ranAny = true
				if j.Status == jobs.StatusFailed {
					hadFailure = true
				}
			}
		}
	} else {
		date, err := time.Parse("2006-01-02", flagDate)
		if err != nil {
			return &exitCodeError{exitConfigError, fmt.Errorf("scrape: invalid --date %q: %w", flagDate, err)}
		}
		for _, source := range sources {
			job, err := orch.ScrapeOne(ctx, source, date, flagForce)
			if ctx.Err() != nil {
				return &exitCodeError{exitInterrupted, ctx.Err()}
			}
			ranAny = true
			if err != nil || job.Status == jobs.StatusFailed {
				hadFailure = true
				log.Error().Str("source", source.Code).Err(err).Msg("scrape failed")
			}
		}
	}

	if !ranAny {
		return &exitCodeError{exitConfigError, fmt.Errorf("scrape: no matching sources")}
	}
	if hadFailure {
		return &exitCodeError{exitRuntimeErr, fmt.Errorf("one or more sources failed")}
	}
	return nil
}

func resolveSources(reg *registry.Registry, codes []string) ([]registry.Source, error) {
	if len(codes) == 0 {
		return reg.All(), nil
	}
	sources := make([]registry.Source, 0, len(codes))
	for _, code := range codes {
		src, err := reg.Get(code)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, log, reg, st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer st.DB.Close()

	orch := newOrchestrator(cfg, reg, st, log)

	if flagOnce {
		if _, err := orch.ScrapeRecent(ctx, 1, false); err != nil && ctx.Err() == nil {
			return &exitCodeError{exitRuntimeErr, err}
		}
		if ctx.Err() != nil {
			return &exitCodeError{exitInterrupted, ctx.Err()}
		}
		return nil
	}

	sched := scheduler.New(reg, orch, cfg.WorkerPoolSize, nil, log)
	sched.Run(ctx)

	if ctx.Err() != nil {
		return &exitCodeError{exitInterrupted, ctx.Err()}
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, so both the
// scheduler's run loop and an in-flight scrape can wind down cleanly instead
// of being killed mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
