package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-preview/internal/common/database"
)

func TestSQLStore_AgainstSQLite(t *testing.T) {
	client, err := database.NewSQLite(":memory:", database.WithSchema(SQLiteSchema))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = client.DB.Exec(`
		INSERT INTO cards (id, slug, full_name, title, company, is_published) VALUES
			('c1', 'jane-doe', 'Jane Doe', 'CTO', 'Acme', TRUE),
			('c2', 'draft-card', 'Draft', NULL, NULL, FALSE);
		INSERT INTO custom_domains (domain, card_id) VALUES ('janedoe.com', 'c1');
		INSERT INTO card_signals (card_id) VALUES ('c1'), ('c1'), ('c1');
	`)
	require.NoError(t, err)

	store := NewSQLStore(client.DB)
	ctx := context.Background()

	rec, err := store.CardBySlug(ctx, "jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", *rec.Name)
	assert.Nil(t, rec.Location)

	_, err = store.CardBySlug(ctx, "draft-card")
	assert.ErrorIs(t, err, ErrNotFound, "unpublished cards are invisible")

	id, err := store.CardIDByDomain(ctx, "janedoe.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	byID, err := store.CardByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane-doe", byID.Slug)

	count, err := store.EngagementCount(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	count, err = store.EngagementCount(ctx, "c2")
	require.NoError(t, err)
	assert.Zero(t, count)
}
