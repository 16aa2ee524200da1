package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"drivesync/internal/browse"
	"drivesync/internal/catalog"
	"drivesync/internal/config"
	"drivesync/internal/engine"
	"drivesync/internal/headunit"
	"drivesync/internal/history"
	"drivesync/internal/logger"
	"drivesync/internal/mpris"
	"drivesync/internal/reconciler"
	"drivesync/internal/surface"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drivesync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	defer log.Sync() //nolint:errcheck // best-effort flush on exit

	if cfg.Catalog == "" {
		return errors.New("no catalog configured (set catalog in config.toml)")
	}
	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return err
	}
	log.Info("catalog loaded",
		zap.String("path", cfg.Catalog), zap.Int("tracks", len(cat.Tracks())))

	// History persistence is best effort: a broken database degrades to
	// in-memory history, never a startup failure.
	var persist history.Persister
	store, err := history.Open()
	if err != nil {
		log.Warn("history database unavailable, in-memory only", zap.Error(err))
	} else {
		persist = store
		defer store.Close()
	}
	hist := history.New(cfg.History.Capacity, persist, log)

	eng := engine.NewBeep(log)
	if err := eng.Setup(context.Background()); err != nil {
		return fmt.Errorf("engine setup: %w", err)
	}
	defer eng.Close()

	hu := headunit.NewServer(log)
	dedup := surface.NewDedup(hu)

	grace, err := cfg.GraceInterval()
	if err != nil {
		return err
	}

	rec, err := reconciler.New(reconciler.Config{
		Engine:        eng,
		Catalog:       cat,
		History:       hist,
		Publisher:     dedup,
		Channels:      channelsFromConfig(cfg.Channels),
		GraceInterval: grace,
		Browse:        browseOptions(cfg.Browse),
		Log:           log,
	})
	if err != nil {
		return err
	}
	rec.Start()
	defer rec.Close()

	hu.SetSession(resyncSession{Reconciler: rec, dedup: dedup})

	if cfg.Mpris {
		adapter, err := mpris.New(rec, eng)
		if err != nil {
			log.Warn("mpris unavailable", zap.Error(err))
		} else {
			defer adapter.Close()
		}
	}

	mux := http.NewServeMux()
	hu.Register(mux)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("head unit channels listening", zap.String("addr", cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.Stringer("signal", sig))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hu.Close()
	return srv.Shutdown(shutdownCtx)
}

// resyncSession clears the dedup cache on every connect edge so a
// reconnecting head unit receives a full sync even when nothing changed
// while it was away.
type resyncSession struct {
	*reconciler.Reconciler
	dedup *surface.Dedup
}

func (s resyncSession) Connection(ev reconciler.ConnectionEvent) error {
	if ev.Kind == reconciler.Connected {
		s.dedup.Reset()
	}
	return s.Reconciler.Connection(ev)
}

func channelsFromConfig(names []string) []reconciler.Channel {
	var channels []reconciler.Channel
	for _, name := range names {
		switch name {
		case "session":
			channels = append(channels, reconciler.ChannelSession)
		case "browse":
			channels = append(channels, reconciler.ChannelBrowse)
		}
	}
	return channels
}

func browseOptions(cfg config.BrowseConfig) browse.Options {
	opts := browse.Options{EmptyMessage: cfg.EmptyMessage}
	if cfg.EmptyHistory == "message" {
		opts.EmptyHistory = browse.ShowMessage
	}
	return opts
}
