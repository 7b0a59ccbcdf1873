// Package store is the read-only client of the card data service: published
// cards by slug or id, custom-domain mappings and engagement counts.
package store

import (
	"context"
	"errors"

	"card-preview/internal/models"
)

// ErrNotFound is returned when a lookup matches no row. It is the only
// business-level negative result; every other error is an internal failure.
var ErrNotFound = errors.New("not found")

// CardStore resolves card records. Only published cards are ever returned.
type CardStore interface {
	CardBySlug(ctx context.Context, slug string) (*models.CardRecord, error)
	CardIDByDomain(ctx context.Context, domain string) (string, error)
	CardByID(ctx context.Context, id string) (*models.CardRecord, error)
}

// EngagementCounter counts signal events recorded against a card.
// No events is a count of zero, not an error.
type EngagementCounter interface {
	EngagementCount(ctx context.Context, cardID string) (int64, error)
}
