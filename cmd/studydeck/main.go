package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/studydeck/internal/config"
	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/planner"
	"github.com/conorfennell/studydeck/internal/srs"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/sync"
	"github.com/conorfennell/studydeck/internal/web"
)

const usage = `Usage: studydeck [flags] <command> [args]

Commands:
  serve                                  Start the web UI (--sources-watch to resync on edits)
  sync                                   Import cards from every source
  source add <path|url> | list | remove <id>
  card add <front> <back> | list | import <file> | clear
  review due | grade <card-id> <0-5>
  stats                                  Deck statistics
  plan subject <name> <priority> <hours>
  plan exam <YYYY-MM-DD> | goals | complete <goal-id> | weekly | progress
  focus [cycles]                         Lay out a focus/break timeline

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("studydeck failed", "error", err)
		os.Exit(1)
	}
}

// app wires the services one command invocation needs.
type app struct {
	cfg     *config.Config
	deck    *deck.Service
	planner *planner.Service
	syncer  *sync.Syncer
	out     io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("studydeck", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	slog.Debug("Database opened successfully", "path", cfg.DB.Path)

	params := srs.DefaultParams()
	params.RelearnDelay = cfg.Review.Relearn
	d := deck.NewService(db, deck.WithShuffle(cfg.Review.Shuffle), deck.WithParams(params))

	a := &app{
		cfg:     cfg,
		deck:    d,
		planner: planner.NewService(db, cfg.Plan.Hours),
		syncer:  sync.New(db, d, cfg.Sources.Dir).WithProgress(os.Stderr),
		out:     out,
	}
	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "sync":
		return a.sync(ctx)
	case "source":
		return a.source(args)
	case "card":
		return a.card(args)
	case "review":
		return a.review(args)
	case "stats":
		return a.stats()
	case "plan":
		return a.plan(args)
	case "focus":
		return a.focus(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// watchDebounce coalesces bursts of note edits into one sync.
const watchDebounce = 500 * time.Millisecond

// serve runs the web UI, and the source watcher when enabled, until ctx is
// cancelled or one of them fails.
func (a *app) serve(ctx context.Context) error {
	srv, err := web.NewServer(a.deck, a.planner, a.syncer)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if a.cfg.Sources.Watch {
		g.Go(func() error {
			return a.syncer.Watch(gCtx, watchDebounce)
		})
	}

	g.Go(func() error {
		slog.Info("Starting web server", "addr", "http://"+a.cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
