package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardRowColumns = []string{
	"id", "slug", "full_name", "title", "company", "location", "photo_url", "layout",
	"ballot_number", "party", "office", "region", "election_year", "slogan",
}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

func TestSQLStore_CardBySlug(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(cardRowColumns).AddRow(
		"card-1", "maria-silva", "Maria Silva", nil, nil, nil, nil, "civic-classic",
		"4521", "Green", "Mayor", "Springfield", "2026", "Clean streets",
	)
	mock.ExpectQuery(`FROM cards WHERE slug = \$1 AND is_published = TRUE`).
		WithArgs("maria-silva").
		WillReturnRows(rows)

	rec, err := store.CardBySlug(context.Background(), "maria-silva")
	require.NoError(t, err)

	assert.Equal(t, "card-1", rec.ID)
	require.NotNil(t, rec.Name)
	assert.Equal(t, "Maria Silva", *rec.Name)
	assert.Nil(t, rec.Title)
	assert.Nil(t, rec.PhotoURL)
	require.NotNil(t, rec.Layout)
	assert.Equal(t, "civic-classic", *rec.Layout)
	require.NotNil(t, rec.Slogan)
	assert.Equal(t, "Clean streets", *rec.Slogan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CardBySlug_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM cards WHERE slug = \$1`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(cardRowColumns))

	_, err := store.CardBySlug(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_CardByID_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM cards WHERE id = \$1`).
		WithArgs("card-9").
		WillReturnError(errors.New("connection reset"))

	_, err := store.CardByID(context.Background(), "card-9")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "card_by_id")
}

func TestSQLStore_CardIDByDomain(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT card_id FROM custom_domains WHERE domain = \$1`).
		WithArgs("janedoe.com").
		WillReturnRows(sqlmock.NewRows([]string{"card_id"}).AddRow("card-2"))
	mock.ExpectQuery(`SELECT card_id FROM custom_domains WHERE domain = \$1`).
		WithArgs("unknown.example").
		WillReturnRows(sqlmock.NewRows([]string{"card_id"}))

	id, err := store.CardIDByDomain(context.Background(), "JaneDoe.com")
	require.NoError(t, err)
	assert.Equal(t, "card-2", id)

	_, err = store.CardIDByDomain(context.Background(), "unknown.example")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_EngagementCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM card_signals WHERE card_id = \$1`).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1204))

	count, err := store.EngagementCount(context.Background(), "card-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1204, count)
}
