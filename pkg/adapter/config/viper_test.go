package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "github.com/damianoneill/notesvc/pkg/domain/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFactory_NewStore_WithFile(t *testing.T) {
	path := writeConfig(t, `
cache:
  url: redis://cache:6379/1
  probe_timeout: 500ms
database:
  port: 5433
  pool:
    enabled: true
search:
  boost: 1.5
  nodes:
    - http://es-1:9200
    - http://es-2:9200
`)

	store, err := NewFactory().NewStore(domainconfig.WithConfigFile(path))
	require.NoError(t, err)

	s, ok := store.GetString("cache.url")
	assert.True(t, ok)
	assert.Equal(t, "redis://cache:6379/1", s)

	d, ok := store.GetDuration("cache.probe_timeout")
	assert.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, d)

	i, ok := store.GetInt("database.port")
	assert.True(t, ok)
	assert.Equal(t, 5433, i)

	b, ok := store.GetBool("database.pool.enabled")
	assert.True(t, ok)
	assert.True(t, b)

	f, ok := store.GetFloat64("search.boost")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	sl, ok := store.GetStringSlice("search.nodes")
	assert.True(t, ok)
	assert.Equal(t, []string{"http://es-1:9200", "http://es-2:9200"}, sl)

	_, ok = store.GetString("missing.key")
	assert.False(t, ok)
}

func TestFactory_NewStore_MissingFile(t *testing.T) {
	_, err := NewFactory().NewStore(domainconfig.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.ErrorContains(t, err, "reading config")
}

func TestFactory_NewStore_WithEnvPrefix(t *testing.T) {
	t.Setenv("NOTESVC_SEARCH_INDEX", "notes-test")

	store, err := NewFactory().NewStore(domainconfig.WithEnvPrefix("NOTESVC"))
	require.NoError(t, err)

	val, ok := store.GetString("search.index")
	assert.True(t, ok)
	assert.Equal(t, "notes-test", val)
}

func TestFactory_NewStore_WithEnvBindings(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://from-env:6379/0")
	t.Setenv("PGPORT", "6543")

	store, err := NewFactory().NewStore(
		domainconfig.WithEnvPrefix("NOTESVC"),
		domainconfig.WithDefaults(map[string]interface{}{
			"cache.url":     "redis://localhost:6379/0",
			"database.port": 5432,
			"database.host": "localhost",
		}),
		domainconfig.WithEnvBindings(map[string][]string{
			"cache.url":     {"REDIS_URL"},
			"database.port": {"PGPORT"},
			"database.host": {"PGHOST"},
		}),
	)
	require.NoError(t, err)

	url, _ := store.GetString("cache.url")
	assert.Equal(t, "redis://from-env:6379/0", url)

	port, _ := store.GetInt("database.port")
	assert.Equal(t, 6543, port)

	host, _ := store.GetString("database.host")
	assert.Equal(t, "localhost", host, "unset binding falls back to default")
}

func TestFactory_NewStore_DefaultsAndSet(t *testing.T) {
	store, err := NewFactory().NewStore(domainconfig.WithDefaults(map[string]interface{}{
		"server.http.port": 3000,
		"logging.level":    "info",
	}))
	require.NoError(t, err)

	port, ok := store.GetInt("server.http.port")
	assert.True(t, ok)
	assert.Equal(t, 3000, port)

	require.NoError(t, store.Set("logging.level", "debug"))
	level, _ := store.GetString("logging.level")
	assert.Equal(t, "debug", level)
	assert.True(t, store.IsSet("logging.level"))
}

func TestStore_UnmarshalKey(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5432
  user: app
`)

	store, err := NewFactory().NewStore(domainconfig.WithConfigFile(path))
	require.NoError(t, err)

	var db struct {
		Host string
		Port int
		User string
	}
	require.NoError(t, store.UnmarshalKey("database", &db))

	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, 5432, db.Port)
	assert.Equal(t, "app", db.User)
}
