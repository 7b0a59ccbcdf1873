// Package handler runs the preview pipeline and serves it over HTTP.
package handler

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "card-preview/internal/common/errors"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/metrics"
	"card-preview/internal/common/observability"
	"card-preview/internal/common/validation"
	"card-preview/internal/models"
	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/engine"
	"card-preview/internal/preview/inliner"
	"card-preview/internal/preview/layout"
	"card-preview/internal/preview/raster"
)

// CardResolver is satisfied by *resolver.Resolver.
type CardResolver interface {
	Lookup(ctx context.Context, identifier string) (*models.CardRecord, error)
	Engagement(ctx context.Context, cardID string) int64
}

// PhotoInliner is satisfied by *inliner.Inliner.
type PhotoInliner interface {
	Inline(ctx context.Context, url string) *inliner.Image
}

// FontProvider is satisfied by *assets.Cache.
type FontProvider interface {
	Fonts(ctx context.Context) (assets.FontSet, error)
}

// Result carries every intermediate of one render.
type Result struct {
	Snapshot models.CardSnapshot
	Tree     *layout.Node
	Document *engine.Document
	Bitmap   *raster.Bitmap
}

type Service struct {
	config     *Config
	resolver   CardResolver
	photos     PhotoInliner
	fonts      FontProvider
	builder    layout.Builder
	rasterizer raster.Rasterizer
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(cfg *Config, resolver CardResolver, photos PhotoInliner, fonts FontProvider, obs *observability.Observability, log logger.Logger) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:     cfg,
		resolver:   resolver,
		photos:     photos,
		fonts:      fonts,
		builder:    layout.Builder{Brand: cfg.Brand},
		rasterizer: raster.Rasterizer{CacheControl: cfg.CacheControl},
		obs:        obs,
		logger:     log,
	}
}

const pngSuffix = ".png"

// Render resolves identifier and produces the PNG preview.
func (s *Service) Render(ctx context.Context, identifier string) (*Result, error) {
	res, err := s.Layout(ctx, identifier)
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "rasterize", func(context.Context) error {
		bmp, err := s.rasterizer.Rasterize(res.Document)
		if err != nil {
			return apperrors.NewRenderFailureError("rasterize", err)
		}
		res.Bitmap = bmp
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PreviewRendersTotal.WithLabelValues(string(res.Snapshot.Variant())).Inc()
	return res, nil
}

// Layout runs every stage except rasterization.
func (s *Service) Layout(ctx context.Context, identifier string) (*Result, error) {
	identifier = validation.NormalizeIdentifier(identifier)
	if v := validation.ValidateIdentifier(identifier); !v.Valid {
		return nil, apperrors.NewBadRequestError(v.Summary())
	}

	var rec *models.CardRecord
	err := s.stage(ctx, "resolve", func(ctx context.Context) error {
		if s.config.LookupTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.config.LookupTimeout)
			defer cancel()
		}
		var err error
		rec, err = s.resolver.Lookup(ctx, identifier)
		// "/og/jane-doe.png" names jane-doe unless a card really ends in .png.
		if trimmed := strings.TrimSuffix(identifier, pngSuffix); trimmed != identifier && trimmed != "" &&
			apperrors.IsCode(err, apperrors.ErrCodeCardNotFound) {
			if retry, retryErr := s.resolver.Lookup(ctx, trimmed); !apperrors.IsCode(retryErr, apperrors.ErrCodeCardNotFound) {
				rec, err = retry, retryErr
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	// The count and the photo are independent; fetch them side by side.
	countCh := make(chan int64, 1)
	go func() {
		countCh <- s.resolver.Engagement(ctx, rec.ID)
	}()

	var photo *inliner.Image
	_ = s.stage(ctx, "photo", func(ctx context.Context) error {
		if rec.PhotoURL != nil {
			photo = s.photos.Inline(ctx, *rec.PhotoURL)
		}
		return nil
	})
	snap := models.NewSnapshot(*rec, <-countCh)

	var fonts assets.FontSet
	err = s.stage(ctx, "fonts", func(ctx context.Context) error {
		var err error
		if fonts, err = s.fonts.Fonts(ctx); err != nil {
			return apperrors.NewRenderFailureError("fonts", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Snapshot: snap}
	err = s.stage(ctx, "layout", func(context.Context) error {
		res.Tree = s.builder.Build(snap, photo)
		doc, err := engine.Layout(res.Tree, fonts)
		if err != nil {
			return apperrors.NewRenderFailureError("layout", err)
		}
		res.Document = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("preview laid out", map[string]interface{}{
		"identifier": identifier,
		"cardId":     snap.ID,
		"variant":    string(snap.Variant()),
		"hasPhoto":   photo != nil,
		"primitives": len(res.Document.Primitives),
	})
	return res, nil
}

// stage times fn, wraps it in a span and records its duration.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	var span trace.Span
	if s.obs != nil {
		ctx, span = s.obs.StartSpan(ctx, "preview."+name, attribute.String("stage", name))
		defer span.End()
	}

	err := fn(ctx)
	metrics.PreviewStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
