package badger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")}
	sm, err := NewManager(arbor.NewLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	return sm.(*Manager)
}

func TestFieldStorage_CRUD(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	fs := m.FieldStorage()

	_, err := fs.GetByID(ctx, "customfield_1")
	assert.ErrorIs(t, err, interfaces.ErrFieldNotFound)

	first := &models.FieldDescriptor{
		ID:            "customfield_1",
		Name:          "Severity",
		AllowedValues: []models.AllowedValue{{ID: "1", Name: "High"}},
		Value:         "1",
	}
	require.NoError(t, fs.Upsert(ctx, first))
	created := first.CreatedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, fs.Upsert(ctx, &models.FieldDescriptor{ID: "customfield_2", Name: "Team", SchemaType: "string"}))

	first.Value = "2"
	require.NoError(t, fs.Upsert(ctx, first))

	got, err := fs.GetByID(ctx, "customfield_1")
	require.NoError(t, err)
	assert.Equal(t, "2", got.Value)
	assert.Equal(t, "High", got.AllowedValues[0].Name)
	assert.True(t, got.CreatedAt.Equal(created))

	all, err := fs.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "customfield_1", all[0].ID)
	assert.Equal(t, "customfield_2", all[1].ID)

	require.NoError(t, fs.Delete(ctx, "customfield_1"))
	assert.ErrorIs(t, fs.Delete(ctx, "customfield_1"), interfaces.ErrFieldNotFound)
}

func TestFieldStorage_RequiresID(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, m.FieldStorage().Upsert(context.Background(), &models.FieldDescriptor{Name: "x"}))
}

func TestFieldCacheStorage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	cache := m.FieldCacheStorage()

	_, err := cache.Get(ctx, "fieldCache_x_y")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	cachedAt := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Put(ctx, &models.FieldCacheEntry{
		Key:      "fieldCache_x_y",
		CachedAt: cachedAt,
		Fields: []models.DiscoveredField{{
			ID:           "customfield_1",
			Name:         "Severity",
			Custom:       true,
			DefaultValue: json.RawMessage(`{"id":"2"}`),
		}},
	}))

	entry, err := cache.Get(ctx, "fieldCache_x_y")
	require.NoError(t, err)
	assert.True(t, entry.CachedAt.Equal(cachedAt))
	require.Len(t, entry.Fields, 1)
	assert.JSONEq(t, `{"id":"2"}`, string(entry.Fields[0].DefaultValue))

	require.NoError(t, cache.Delete(ctx, "fieldCache_x_y"))
	_, err = cache.Get(ctx, "fieldCache_x_y")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestKVStorage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	kv := m.KeyValueStorage()

	_, err := kv.Get(ctx, "projectKey")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "projectKey", "OPS", "last project"))
	require.NoError(t, kv.Set(ctx, " PROJECTKEY ", "HELP", "last project"))

	value, err := kv.Get(ctx, "projectkey")
	require.NoError(t, err)
	assert.Equal(t, "HELP", value)

	pairs, err := kv.List(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "projectkey", pairs[0].Key)

	require.NoError(t, kv.Delete(ctx, "projectKey"))
	assert.ErrorIs(t, kv.Delete(ctx, "projectKey"), interfaces.ErrKeyNotFound)
}

func TestNewBadgerDB_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	logger := arbor.NewLogger()

	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: path})
	require.NoError(t, err)
	kv := NewKVStorage(db, logger)
	require.NoError(t, kv.Set(context.Background(), "k", "v", ""))
	require.NoError(t, db.Close())

	db, err = NewBadgerDB(logger, &common.BadgerConfig{Path: path, ResetOnStartup: true})
	require.NoError(t, err)
	defer db.Close()

	_, err = NewKVStorage(db, logger).Get(context.Background(), "k")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestLoadFieldsFromFile(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fields.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[customfield_10010]
name = "Severity"
schema_type = "option"
value = "2"
allowed_values = [{ id = "1", name = "High" }, { id = "2", name = "Low" }]

[customfield_10020]
schema_type = "date"
`), 0644))

	require.NoError(t, m.FieldStorage().Upsert(ctx, &models.FieldDescriptor{ID: "customfield_10020", Name: "Kept"}))
	require.NoError(t, m.LoadFieldsFromFile(ctx, path))

	sev, err := m.FieldStorage().GetByID(ctx, "customfield_10010")
	require.NoError(t, err)
	assert.Equal(t, "Severity", sev.Name)
	assert.Equal(t, "2", sev.Value)
	require.Len(t, sev.AllowedValues, 2)
	assert.Equal(t, "Low", sev.AllowedValues[1].Name)

	kept, err := m.FieldStorage().GetByID(ctx, "customfield_10020")
	require.NoError(t, err)
	assert.Equal(t, "Kept", kept.Name)

	assert.Error(t, m.LoadFieldsFromFile(ctx, filepath.Join(t.TempDir(), "missing.toml")))
}
