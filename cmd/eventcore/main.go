// Package main is the entry point for the eventcore command.
//
// eventcore dispatches events through the demo handlers, either by
// replaying a YAML batch or by watching a directory for file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/eventcore/internal/config"
	"github.com/dshills/eventcore/internal/container"
	"github.com/dshills/eventcore/internal/demo"
	"github.com/dshills/eventcore/internal/event"
	"github.com/dshills/eventcore/internal/event/dispatch"
	"github.com/dshills/eventcore/internal/platform/otel"
	"github.com/dshills/eventcore/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	configPath string
	strategy   string
	replayPath string
	watchDir   string
	recover    bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "eventcore %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	logger := log.New(stderr, "eventcore: ", log.LstdFlags)

	cfg, err := config.Load(config.Options{Path: opts.configPath})
	if err != nil {
		logger.Printf("load config: %v", err)
		return 1
	}
	if err := applyFlags(&cfg, opts); err != nil {
		logger.Printf("%v", err)
		return 2
	}
	if opts.replayPath == "" && cfg.Watch.Dir == "" {
		fmt.Fprintln(stderr, "Error: one of -replay or -watch is required")
		return 2
	}

	shutdown, err := otel.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Printf("tracing setup: %v", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	c := container.New()
	handlers, err := demo.Register(c, log.New(stdout, "", 0))
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	d, err := newDispatcher(cfg, c, logger)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}
	logger.Printf("strategy=%s handlers=%d types=%d", cfg.Strategy, c.Count(), len(c.Types()))

	code := 0
	if opts.replayPath != "" {
		code = replay(ctx, d, opts.replayPath, logger)
	}
	if code == 0 && cfg.Watch.Dir != "" {
		code = watchDir(ctx, d, cfg.Watch, logger)
	}

	s := d.Stats()
	logger.Printf("dispatched=%d succeeded=%d failed=%d handlers=%d panics=%d avg=%s",
		s.Dispatched, s.Succeeded, s.Failed, s.HandlersExecuted, s.HandlerPanics, s.AvgDuration)
	if open := handlers.Ledger.Open(); len(open) > 0 {
		logger.Printf("open orders: %v (total %.2f)", open, handlers.Ledger.Total())
	}
	return code
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("eventcore", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.strategy, "strategy", "", "Dispatch strategy: cached or reflective")
	fs.StringVar(&opts.replayPath, "replay", "", "Dispatch the events in a YAML or JSON batch file")
	fs.StringVar(&opts.watchDir, "watch", "", "Dispatch file events for a directory until interrupted")
	fs.BoolVar(&opts.recover, "recover", false, "Convert handler panics into errors")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.BoolVar(&opts.version, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "eventcore - type-keyed event dispatch\n\n")
		fmt.Fprintf(stderr, "Usage: eventcore [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  eventcore -replay orders.yaml                   Replay a batch\n")
		fmt.Fprintf(stderr, "  eventcore -strategy reflective -replay o.yaml   Replay without caching\n")
		fmt.Fprintf(stderr, "  eventcore -watch ./inbox                        Dispatch file events\n")
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return options{}, errors.New("unexpected arguments")
	}
	return opts, nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cfg *config.Config, opts options) error {
	if opts.strategy != "" {
		cfg.Strategy = opts.strategy
	}
	if opts.watchDir != "" {
		cfg.Watch.Dir = opts.watchDir
	}
	if opts.recover {
		cfg.RecoverPanics = true
	}
	return cfg.Validate()
}

func newDispatcher(cfg config.Config, c *container.Container, logger *log.Logger) (dispatch.EventDispatcher, error) {
	strategy, err := dispatch.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	bindings := append(demo.Bindings(), watch.Bindings()...)
	dopts := []dispatch.Option{dispatch.WithBinder(dispatch.NewBindingSet(bindings...))}
	if cfg.RecoverPanics {
		dopts = append(dopts, dispatch.WithPanicHandler(func(e event.Event, handler any, value any, stack []byte) {
			logger.Printf("panic in %T handling %T: %v\n%s", handler, e, value, stack)
		}))
	}
	return dispatch.NewForStrategy(strategy, c, dopts...)
}

func replay(ctx context.Context, d dispatch.EventDispatcher, path string, logger *log.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Printf("open replay file: %v", err)
		return 1
	}
	defer f.Close()

	events, err := demo.DecodeFile(path, f)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	if err := d.DispatchAll(ctx, events); err != nil {
		var be *event.BatchError
		if errors.As(err, &be) {
			logger.Printf("replay stopped at event %d of %d: %v", be.Index, len(events), be.Err)
		} else {
			logger.Printf("replay: %v", err)
		}
		return 1
	}
	logger.Printf("replayed %d events from %s", len(events), path)
	return 0
}

func watchDir(ctx context.Context, d dispatch.EventDispatcher, cfg config.WatchConfig, logger *log.Logger) int {
	w, err := watch.New(cfg.Dir,
		watch.WithRecursive(cfg.Recursive),
		watch.WithIgnorePatterns(cfg.Ignore...),
		watch.WithErrorHandler(func(err error) {
			logger.Printf("watch: %v", err)
		}),
	)
	if err != nil {
		logger.Printf("watch: %v", err)
		return 1
	}
	defer w.Close()

	logger.Printf("watching %s (recursive=%v)", w.Root(), cfg.Recursive)
	if err := w.Run(ctx, d.Dispatch); err != nil {
		logger.Printf("watch: %v", err)
		return 1
	}
	logger.Printf("watch stopped: %d events", w.Stats().Events)
	return 0
}
