// Package server assembles the preview pipeline from configuration and
// live connections.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"card-preview/internal/common/config"
	"card-preview/internal/common/database"
	commonhttp "card-preview/internal/common/http"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/observability"
	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/handler"
	"card-preview/internal/preview/inliner"
	"card-preview/internal/preview/resolver"
	"card-preview/internal/preview/store"
	"card-preview/pkg/registry"
)

const defaultFetchTimeout = 30 * time.Second

// Dependencies are the connections opened by the caller. Only SQL is
// required.
type Dependencies struct {
	SQL           *database.SQLClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	Fetcher       *commonhttp.Client
	Fonts         handler.FontProvider
	Registry      *registry.FontRegistry
	Obs           *observability.Observability
}

type Server struct {
	cfg      *config.Config
	Service  *handler.Service
	Resolver *resolver.Resolver
	Fonts    handler.FontProvider
	http     *http.Server
	logger   logger.Logger
}

// New wires store, resolver, caches and the HTTP handler.
func New(cfg *config.Config, deps Dependencies, log logger.Logger) (*Server, error) {
	if deps.SQL == nil || deps.SQL.DB == nil {
		return nil, errors.New("server: SQL client is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	cards := store.NewSQLStore(deps.SQL.DB)

	var counter store.EngagementCounter = cards
	if cfg.Preview.EngagementSource == "elasticsearch" && deps.Elasticsearch != nil {
		counter = store.NewESSignalCounter(deps.Elasticsearch.Client, cfg.Database.Elasticsearch.SignalIndex)
	}

	opts := []resolver.Option{resolver.WithLogger(log)}
	if ttl := config.GetDuration(cfg.Preview.DomainCacheTTL); deps.Redis != nil && ttl > 0 {
		opts = append(opts, resolver.WithDomainCache(resolver.NewDomainCache(deps.Redis.Client, ttl)))
	}
	res := resolver.New(cards, counter, opts...)

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = commonhttp.NewClient(defaultFetchTimeout)
	}

	fonts := deps.Fonts
	if fonts == nil {
		reg := deps.Registry
		if reg == nil {
			reg = registry.Default()
		}
		fonts = assets.NewCache(reg, fetcher,
			assets.WithTimeout(config.GetDuration(cfg.Preview.FontTimeout)),
			assets.WithLogger(log),
		)
	}

	photos := inliner.New(fetcher, config.GetDuration(cfg.Preview.PhotoTimeout), cfg.Preview.PhotoMaxBytes, log).
		WithMaxPixels(cfg.Preview.PhotoMaxPixels)
	svc := handler.NewService(handler.ConfigFrom(cfg.Preview), res, photos, fonts, deps.Obs, log)

	checks := map[string]handler.Pinger{"database": deps.SQL}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	if deps.Elasticsearch != nil {
		checks["elasticsearch"] = deps.Elasticsearch
	}

	h := handler.NewHTTPHandler(svc, deps.Obs, log, checks)
	return &Server{
		cfg:      cfg,
		Service:  svc,
		Resolver: res,
		Fonts:    fonts,
		logger:   log,
		http: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           h.Routes(),
			ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		},
	}, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Warm loads the primary fonts when they come from the download cache. A
// failure is logged; requests retry the download.
func (s *Server) Warm(ctx context.Context) {
	cache, ok := s.Fonts.(*assets.Cache)
	if !ok {
		return
	}
	if err := cache.Warm(ctx); err != nil {
		s.logger.Warn("font warm-up failed", map[string]interface{}{"error": err.Error()})
	}
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("preview server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight renders within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := config.GetDuration(s.cfg.Server.ShutdownTimeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
