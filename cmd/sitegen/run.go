package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/events"
	"git.home.luguber.info/inful/sitegen/internal/gitmeta"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/server"
	"git.home.luguber.info/inful/sitegen/internal/state"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/version"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// runtime bundles everything a command needs, with a teardown for the
// optional resources (ledger, event bus).
type runtime struct {
	cfg      *config.Config
	runner   *build.Runner
	recorder metrics.Recorder
	registry *prom.Registry
	closers  []func() error
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
}

func newRuntime(withMetrics bool) (*runtime, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, recorder: metrics.NoopRecorder{}}
	if withMetrics && cfg.Serve.Metrics {
		rt.registry = prom.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	rev, err := gitmeta.Resolve(cfg.Root)
	if err != nil {
		slog.Debug("revision lookup failed", "error", err)
	}
	revision := rev.Short
	if rev.Dirty {
		revision += "-dirty"
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, err
		}
		publisher = p
		rt.closers = append(rt.closers, p.Close)
	}

	var ledger state.Ledger
	if cfg.StatePath != "" {
		l, err := state.NewSQLiteLedger(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		ledger = l
		rt.closers = append(rt.closers, l.Close)
	}

	rt.runner = &build.Runner{
		Config: cfg,
		Scheduler: &render.Scheduler{
			Templates: templates.NewEngine(cfg.Snippets),
			Converter: markdown.NewConverter(),
			Global:    cfg.Global,
			Meta: render.Meta{
				Date:     time.Now(),
				Builder:  version.Name,
				Version:  version.Version,
				Revision: revision,
			},
		},
		Recorder:  rt.recorder,
		Publisher: publisher,
		Ledger:    ledger,
	}
	return rt, nil
}

func runBuild() error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signalContext()
	defer stop()

	_, err = rt.runner.Run(ctx)
	return err
}

func runServe() error {
	rt, err := newRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signalContext()
	defer stop()

	// Initial generation before anything is served.
	if _, err := rt.runner.Run(ctx); err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(rt.cfg.Root,
		[]string{rt.cfg.Output.Directory}, slog.Default(), rt.recorder)
	if err != nil {
		return err
	}

	coordinator := &watch.Coordinator{
		Debounce: rt.cfg.Watch.DebounceDuration(),
		Sleep:    rt.cfg.Watch.SleepDuration(),
		Build: func(ctx context.Context) error {
			_, err := rt.runner.Run(ctx)
			return err
		},
		Events:   watcher.Events(),
		Recorder: rt.recorder,
	}

	if interval := rt.cfg.Watch.FullRebuildIntervalDuration(); interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				rt.runner.Reset()
				coordinator.Kick("scheduled full rebuild")
			}),
		)
		if err != nil {
			return err
		}
		scheduler.Start()
		rt.closers = append(rt.closers, scheduler.Shutdown)
	}

	port := rt.cfg.Serve.Port
	if CLI.Serve.Port != 0 {
		port = CLI.Serve.Port
	}
	srv := server.New(server.Options{
		Dir:      rt.cfg.Output.Directory,
		Port:     port,
		Registry: rt.registry,
		Phase:    func() string { return coordinator.State().String() },
	})

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				slog.Error("component stopped", "component", name, "error", err)
				errCh <- err
				stop()
			}
		}()
	}
	start("watcher", watcher.Run)
	start("coordinator", coordinator.Run)
	start("server", srv.Run)

	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
