package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/simulation"
	"github.com/zeusync/escape/internal/injector"
	"github.com/zeusync/escape/internal/server"
	"github.com/zeusync/escape/internal/viewer/term"
	"golang.org/x/sync/errgroup"
)

type options struct {
	config string
	level  string
	load   string
	save   string
	ticks  int
	view   string
	serve  string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("escape", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "configuration file (.yaml, .yml or .json)")
	fs.StringVar(&o.level, "level", "", "level directory holding configuration.json and mapdata.json")
	fs.StringVar(&o.load, "load", "", "snapshot to restore before running")
	fs.StringVar(&o.save, "save", "", "snapshot to write when the run ends")
	fs.IntVar(&o.ticks, "ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	fs.StringVar(&o.view, "view", "", "viewer to attach: term")
	fs.StringVar(&o.serve, "serve", "", "serve the websocket frame feed on this address")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.view != "" && o.view != "term" {
		return o, fmt.Errorf("unknown viewer %q", o.view)
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "escape:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := log.New(level)
	defer func() { _ = logger.Sync() }()

	sim, err := injector.InitializeSimulation(cfg, logger)
	if err != nil {
		return err
	}
	if err := sim.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sim.Close(context.Background()); err != nil {
			logger.Warn("shutdown", log.Error(err))
		}
	}()

	if opts.level != "" {
		if _, err := sim.LoadLevel(opts.level); err != nil {
			return err
		}
	}
	if opts.load != "" {
		if err := sim.Load(opts.load); err != nil {
			return err
		}
	}

	if err := serveAndRun(ctx, sim, cfg, opts, logger); err != nil {
		return err
	}

	if opts.save != "" {
		return sim.Save(opts.save)
	}
	return nil
}

// serveAndRun runs the tick loop next to the optional feed server and
// viewer. Whichever finishes first stops the others.
func serveAndRun(ctx context.Context, sim *simulation.Simulation, cfg config.Config, opts options, logger log.Log) error {
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var sinks []simulation.FrameSink

	if opts.serve != "" {
		feed := server.NewFeed(sim.Input, cfg.Server.SendBuffer, cfg.Server.MaxClients, logger)
		srv := server.NewHTTPServer(opts.serve, feed, logger)
		sinks = append(sinks, srv)
		g.Go(func() error { return srv.Serve(ctx) })
	}

	if opts.view == "term" {
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		viewer := term.New(screen, sim.Input, logger)
		sinks = append(sinks, viewer)
		g.Go(func() error {
			err := viewer.Run(ctx)
			cancel()
			if errors.Is(err, term.ErrQuit) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		defer cancel()
		return sim.Run(ctx, opts.ticks, sinks...)
	})
	return g.Wait()
}
