// Package resolver turns a public identifier into a card snapshot: slug
// lookup first, then the custom-domain indirection.
package resolver

import (
	"context"
	"errors"
	"strings"

	apperrors "card-preview/internal/common/errors"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/metrics"
	"card-preview/internal/models"
	"card-preview/internal/preview/store"
)

type Resolver struct {
	cards   store.CardStore
	counter store.EngagementCounter
	domains *DomainCache
	logger  logger.Logger
}

type Option func(*Resolver)

// WithDomainCache puts a Redis cache in front of CardIDByDomain.
func WithDomainCache(c *DomainCache) Option {
	return func(r *Resolver) { r.domains = c }
}

func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func New(cards store.CardStore, counter store.EngagementCounter, opts ...Option) *Resolver {
	r := &Resolver{
		cards:   cards,
		counter: counter,
		logger:  logger.NewNoOpLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve looks the card up and attaches its engagement count.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*models.CardSnapshot, error) {
	rec, err := r.Lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	snap := models.NewSnapshot(*rec, r.Engagement(ctx, rec.ID))
	return &snap, nil
}

// Lookup finds the published card for identifier. The slug is always tried
// before the custom-domain mapping. A miss on both is CARD_NOT_FOUND; any
// other store error is LOOKUP_FAILED.
func (r *Resolver) Lookup(ctx context.Context, identifier string) (*models.CardRecord, error) {
	rec, err := r.cards.CardBySlug(ctx, identifier)
	switch {
	case err == nil:
		return rec, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewLookupFailedError("slug", err)
	}

	// Host names are case-insensitive; mappings are stored lower-cased.
	domain := strings.ToLower(identifier)
	cardID, err := r.cardIDByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewCardNotFoundError(identifier)
		}
		return nil, apperrors.NewLookupFailedError("domain", err)
	}

	rec, err = r.cards.CardByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.forgetDomain(ctx, domain)
			return nil, apperrors.NewCardNotFoundError(identifier)
		}
		return nil, apperrors.NewLookupFailedError("card_by_id", err)
	}
	return rec, nil
}

// Engagement returns the signal count for cardID, or 0 when the count
// cannot be read. It never fails the render.
func (r *Resolver) Engagement(ctx context.Context, cardID string) int64 {
	if r.counter == nil {
		return 0
	}
	count, err := r.counter.EngagementCount(ctx, cardID)
	if err != nil {
		degraded := apperrors.NewUpstreamDegradedError("engagement", err)
		metrics.UpstreamDegraded.WithLabelValues("engagement").Inc()
		r.logger.Warn("engagement count unavailable", map[string]interface{}{
			"cardId":    cardID,
			"errorCode": string(degraded.Code),
			"details":   degraded.Details,
		})
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

func (r *Resolver) cardIDByDomain(ctx context.Context, domain string) (string, error) {
	if r.domains != nil {
		id, ok, err := r.domains.Get(ctx, domain)
		if err != nil {
			metrics.UpstreamDegraded.WithLabelValues("domain_cache").Inc()
			r.logger.Warn("domain cache read failed", map[string]interface{}{
				"domain": domain,
				"error":  err.Error(),
			})
		} else if ok {
			return id, nil
		}
	}

	id, err := r.cards.CardIDByDomain(ctx, domain)
	if err != nil {
		return "", err
	}

	if r.domains != nil {
		if err := r.domains.Set(ctx, domain, id); err != nil {
			r.logger.Debug("domain cache write failed", map[string]interface{}{
				"domain": domain,
				"error":  err.Error(),
			})
		}
	}
	return id, nil
}

func (r *Resolver) forgetDomain(ctx context.Context, domain string) {
	if r.domains == nil {
		return
	}
	if err := r.domains.Forget(ctx, domain); err != nil {
		r.logger.Debug("domain cache delete failed", map[string]interface{}{
			"domain": domain,
			"error":  err.Error(),
		})
	}
}
