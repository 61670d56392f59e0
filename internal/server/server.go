// Package server is the HTTP edge: the websocket upgrade endpoint plus
// the small plain-HTTP surface (health, public room listing).
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/game"
	"github.com/scrawlgg/scrawl-backend/internal/store"
	"github.com/scrawlgg/scrawl-backend/internal/ws"
)

type Server struct {
	cfg     *config.Config
	adapter *ws.Adapter
	engine  *game.Engine
	store   store.Store
	log     *slog.Logger
}

func New(cfg *config.Config, adapter *ws.Adapter, engine *game.Engine, st store.Store, log *slog.Logger) *http.Server {
	s := &Server{
		cfg:     cfg,
		adapter: adapter,
		engine:  engine,
		store:   st,
		log:     log.With("component", "http"),
	}
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
