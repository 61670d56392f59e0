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

	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/game"
	"github.com/scrawlgg/scrawl-backend/internal/logging"
	"github.com/scrawlgg/scrawl-backend/internal/server"
	"github.com/scrawlgg/scrawl-backend/internal/store"
	"github.com/scrawlgg/scrawl-backend/internal/words"
	"github.com/scrawlgg/scrawl-backend/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, flush, err := logging.New(cfg.Logging, cfg.Sentry)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.Store.DatabaseURL != "" {
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		log.Info("using postgres store")
	} else {
		st = store.NewMemory()
		log.Warn("no DATABASE_URL set, rooms will not survive restarts")
	}
	defer st.Close()

	seed := time.Now().UnixNano()
	var catalogue *words.Catalogue
	if cfg.Game.ThemeFile != "" {
		log.Info("loading external theme pack", "path", cfg.Game.ThemeFile)
		catalogue, err = words.LoadFile(cfg.Game.ThemeFile, seed)
	} else {
		catalogue, err = words.Load(seed)
	}
	if err != nil {
		return fmt.Errorf("load word catalogue: %w", err)
	}

	registry := game.NewRegistry(st, cfg.Store.WriteTimeout, log)
	engine := game.NewEngine(cfg.Game, cfg.Store, registry, st, catalogue, log)
	limiters := ws.NewLimiterRegistry(cfg.Limits.SessionRate, cfg.Limits.SessionBurst)
	adapter := ws.NewAdapter(engine, limiters, cfg.Limits, log)

	// Bring recently-active persisted rooms back before accepting
	// traffic, so reconnects right after a restart find their room.
	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := registry.RehydrateAll(bootCtx, time.Now().Add(-cfg.Store.Retention)); err != nil {
		log.Warn("transient: boot rehydration failed", "err", err)
	}
	cancel()

	housekeeper := game.NewHousekeeper(cfg, registry, st, limiters, log)
	go housekeeper.Run(ctx)

	srv := server.New(cfg, adapter, engine, st, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	engine.Shutdown("server restarting, please rejoin in a moment")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "err", err)
	}
	return nil
}
