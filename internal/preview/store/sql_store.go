package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"card-preview/internal/models"
)

// SQLStore implements CardStore and EngagementCounter over database/sql.
// The queries use $N placeholders, which both lib/pq and modernc sqlite bind.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CardBySlug(ctx context.Context, slug string) (*models.CardRecord, error) {
	return s.queryCard(ctx, "card_by_slug", queryCardBySlug, slug)
}

func (s *SQLStore) CardByID(ctx context.Context, id string) (*models.CardRecord, error) {
	return s.queryCard(ctx, "card_by_id", queryCardByID, id)
}

// CardIDByDomain matches domains case-insensitively; they are stored lower-cased.
func (s *SQLStore) CardIDByDomain(ctx context.Context, domain string) (string, error) {
	var cardID string
	err := s.db.QueryRowContext(ctx, queryCardIDByDomain, strings.ToLower(domain)).Scan(&cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("card_id_by_domain: %w", err)
	}
	return cardID, nil
}

func (s *SQLStore) EngagementCount(ctx context.Context, cardID string) (int64, error) {
	var count sql.NullInt64
	if err := s.db.QueryRowContext(ctx, queryEngagementCount, cardID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("engagement_count: %w", err)
	}
	return count.Int64, nil
}

func (s *SQLStore) queryCard(ctx context.Context, name, query, arg string) (*models.CardRecord, error) {
	var (
		rec  models.CardRecord
		cols [12]sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.ID, &rec.Slug,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&cols[6], &cols[7], &cols[8], &cols[9], &cols[10], &cols[11],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	targets := []**string{
		&rec.Name, &rec.Title, &rec.Company, &rec.Location, &rec.PhotoURL, &rec.Layout,
		&rec.BallotNumber, &rec.Party, &rec.Office, &rec.Region, &rec.ElectionYear, &rec.Slogan,
	}
	for i, col := range cols {
		if col.Valid {
			v := col.String
			*targets[i] = &v
		}
	}
	return &rec, nil
}
