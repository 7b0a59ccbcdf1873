package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_SQLiteDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: /tmp/cards.db
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/cards.db", cfg.Database.SQLite.Path)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 3000, cfg.Preview.PhotoTimeout)
	assert.Equal(t, int64(5<<20), cfg.Preview.PhotoMaxBytes)
	assert.Equal(t, 25_000_000, cfg.Preview.PhotoMaxPixels)
	assert.Equal(t, DefaultCacheControl, cfg.Preview.CacheControl)
	assert.Equal(t, "database", cfg.Preview.EngagementSource)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "card-preview", cfg.Tracing.ServiceName)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("CARD_DB_HOST", "db.internal")
	path := writeConfig(t, `
database:
  driver: postgres
  postgres:
    host: ${CARD_DB_HOST}
    database: cards
    user: preview
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "host=db.internal")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "postgres without host",
			body:    "database:\n  driver: postgres\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "unknown driver",
			body:    "database:\n  driver: mongo\n",
			wantErr: "database.driver must be postgres or sqlite",
		},
		{
			name:    "redis enabled without address",
			body:    "database:\n  driver: sqlite\n  redis:\n    enabled: true\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "elasticsearch engagement without cluster",
			body:    "database:\n  driver: sqlite\npreview:\n  engagement_source: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses is required",
		},
		{
			name:    "tracing without endpoint",
			body:    "database:\n  driver: sqlite\ntracing:\n  enabled: true\n",
			wantErr: "tracing.jaeger_endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "data/cards.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Server.ShutdownTimeout))
	assert.Equal(t, "linkcard", cfg.Preview.Brand)
}
