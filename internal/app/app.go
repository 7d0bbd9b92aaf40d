package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/backer/internal/broadcast"
	"github.com/five82/backer/internal/config"
	"github.com/five82/backer/internal/notify"
	"github.com/five82/backer/internal/platform"
	"github.com/five82/backer/internal/platform/demoapi"
	"github.com/five82/backer/internal/prefs"
	"github.com/five82/backer/internal/state"
	"github.com/five82/backer/internal/ui"
)

// Options configure the backer application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/backer/prefs.toml
	EnvPath    string        // empty uses ./.env
	PollEvery  time.Duration // zero uses the config value

	// Demo serves the platform API from memory on a loopback port.
	Demo        bool
	DemoLatency time.Duration

	Debug bool
}

// feedRetryBase is the first reconnect delay of the notification feed.
const feedRetryBase = time.Second

// Run boots the backer TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	if err := config.LoadDotEnv(opts.EnvPath); err != nil {
		return err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogging(cfg.LogFile, opts.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		// Whatever Load could salvage is still used.
		slog.Warn("preferences ignored", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if opts.Demo {
		apiURL, wsURL, err := startDemo(ctx, g, opts.DemoLatency)
		if err != nil {
			return err
		}
		cfg.APIURL, cfg.WSURL, cfg.Token = apiURL, wsURL, "demo"
	}

	client, err := platform.NewClient(cfg.APIURL, platform.Options{Token: cfg.Token, Timeout: cfg.RequestTimeout})
	if err != nil {
		return fmt.Errorf("init platform client: %w", err)
	}

	store := &state.Store{}
	bus := broadcast.NewBus()

	wsURL := cfg.WSURL
	if wsURL == "" {
		if wsURL, err = notify.URLFromAPI(cfg.APIURL); err != nil {
			return fmt.Errorf("derive notification url: %w", err)
		}
	}
	feed, err := notify.New(notify.Options{
		URL:   wsURL,
		Token: cfg.Token,
		Bus:   bus,
		Backoff: func(attempt int) time.Duration {
			return calculateBackoff(attempt-1, feedRetryBase)
		},
	})
	if err != nil {
		return fmt.Errorf("init notification feed: %w", err)
	}

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	slog.Info("backer starting",
		slog.String("api_url", cfg.APIURL),
		slog.String("ws_url", wsURL),
		slog.Bool("demo", opts.Demo),
		slog.Duration("poll_interval", interval),
	)

	sub := bus.Subscribe(broadcast.DefaultBuffer)
	g.Go(func() error {
		defer sub.Close()
		return pumpStore(ctx, store, sub)
	})
	g.Go(func() error { return feed.Run(ctx) })
	g.Go(func() error { return runPoller(ctx, store, client, interval) })

	exportDir := cfg.ExportDir
	g.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		return ui.Run(ui.Options{
			Context:     ctx,
			API:         client,
			Store:       store,
			Bus:         bus,
			ThemeName:   userPrefs.Theme,
			StartScreen: userPrefs.StartScreen,
			PrefsPath:   opts.PrefsPath,
			SaveExport: func(resource platform.Resource, data []byte) (string, error) {
				return saveExport(exportDir, resource, data, time.Now())
			},
		})
	})

	err = g.Wait()
	slog.Info("backer stopped", slog.Any("error", err))
	return err
}

// pumpStore folds broadcast events into the dashboard store.
func pumpStore(ctx context.Context, store *state.Store, sub *broadcast.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			store.Apply(ev)
		}
	}
}

// startDemo serves the demo API on a loopback port for the lifetime of ctx
// and returns its REST and WebSocket urls.
func startDemo(ctx context.Context, g *errgroup.Group, latency time.Duration) (string, string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", "", fmt.Errorf("listen for demo api: %w", err)
	}
	demo := demoapi.New(demoapi.Options{Latency: latency})
	srv := &http.Server{
		Handler:           demo.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("demo api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		demo.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	addr := ln.Addr().String()
	slog.Info("demo api listening", slog.String("addr", addr))
	return "http://" + addr + demoapi.APIPrefix, "ws://" + addr + demoapi.NotificationsPath, nil
}

// setupLogging sends slog output to path. The terminal belongs to the UI.
func setupLogging(path string, debug bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { _ = f.Close() }, nil
}
