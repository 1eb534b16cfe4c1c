package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"fogtime/internal/calendar"
	"fogtime/internal/collect"
	"fogtime/internal/config"
	"fogtime/internal/gcal"
	"fogtime/internal/ics"
	appLog "fogtime/internal/log"
	"fogtime/internal/metrics"
	"fogtime/internal/sync"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	once       bool
	verbose    bool
}

func main() {
	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("fogtime starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"sources", len(conf.Sources),
		"ics_sources", len(conf.ICS),
		"target", conf.Target,
		"reverse_target", conf.ReverseTarget,
		"interval_seconds", conf.IntervalSeconds,
		"schedule", conf.Schedule,
		"blocker_summary", conf.BlockerSummary,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := gcal.NewClient(ctx, conf.Credentials, conf.Token)
	if err != nil {
		appLog.Error("failed to build calendar client", err)
		os.Exit(1)
	}

	runner := sync.NewRunner(
		sync.NewOrchestrator(store, sync.Options{
			Sources:        buildSources(conf, store),
			Target:         conf.Target,
			ReverseTarget:  conf.ReverseTarget,
			BlockerSummary: conf.BlockerSummary,
		}),
		time.Duration(conf.IntervalSeconds)*time.Second,
	)

	if conf.MetricsListen != "" {
		go func() {
			appLog.Info("serving metrics", "listen", conf.MetricsListen)
			if err := metrics.Serve(conf.MetricsListen); err != nil {
				appLog.Error("metrics listener stopped", err)
			}
		}()
	}

	switch {
	case flags.once:
		if err := runner.RunOnce(ctx); err != nil {
			os.Exit(1)
		}
	case conf.Schedule != "":
		runScheduled(ctx, runner, conf.Schedule)
	default:
		runner.Run(ctx)
	}

	appLog.Info("fogtime exiting")
}

// buildSources assembles the forward-phase source list: Google calendars
// first, then ICS feeds, in config order. Order matters: on canonical-id
// collision the later source wins.
func buildSources(conf *config.Config, store calendar.Reader) []collect.Source {
	sources := make([]collect.Source, 0, len(conf.Sources)+len(conf.ICS))
	for _, id := range conf.Sources {
		sources = append(sources, collect.Source{CalendarID: id, Reader: store})
	}
	if len(conf.ICS) > 0 {
		feeds := make([]ics.Source, 0, len(conf.ICS))
		for _, c := range conf.ICS {
			feeds = append(feeds, ics.Source{ID: c.ID, URL: c.URL})
		}
		feedClient := ics.NewClient(conf.ICSCacheDir, feeds)
		for _, c := range conf.ICS {
			sources = append(sources, collect.Source{CalendarID: c.ID, Reader: feedClient})
		}
	}
	return sources
}

// runScheduled drives cycles from a cron expression instead of the fixed
// delay loop. SkipIfStillRunning preserves the at-most-one-in-flight-cycle
// guarantee when a cycle overruns its slot.
func runScheduled(ctx context.Context, runner *sync.Runner, schedule string) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		_ = runner.RunOnce(ctx)
	})
	if err != nil {
		appLog.Error("invalid cron schedule", err, "schedule", schedule)
		os.Exit(1)
	}

	appLog.Info("running on cron schedule", "schedule", schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync cycle and exit")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
