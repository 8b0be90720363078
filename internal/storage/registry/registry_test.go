package registry_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrFrederic/iflyvideosbot/internal/models"
	"github.com/MrFrederic/iflyvideosbot/internal/storage"
	"github.com/MrFrederic/iflyvideosbot/internal/storage/registry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestUpsertAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	r, err := registry.New(discardLogger(), path)
	require.NoError(t, err)

	entry := models.DirectoryEntry{Username: "MrFrederic", Location: 932162499}
	require.NoError(t, r.Upsert(entry))

	got, err := r.ByUsername("mrfrederic")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	got, err = r.ByLocation(932162499)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	_, err = r.ByUsername("somebodyelse")
	require.ErrorIs(t, err, storage.ErrEntryNotFound)
}

func TestUpsertKeyedByLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	r, err := registry.New(discardLogger(), path)
	require.NoError(t, err)

	require.NoError(t, r.Upsert(models.DirectoryEntry{Username: "oldname", Location: 1}))
	require.NoError(t, r.Upsert(models.DirectoryEntry{Username: "newname", Location: 1}))

	require.Len(t, r.All(), 1)

	_, err = r.ByUsername("oldname")
	require.ErrorIs(t, err, storage.ErrEntryNotFound)

	got, err := r.ByUsername("newname")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Location)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	entries := make([]models.DirectoryEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, models.DirectoryEntry{
			Username: gofakeit.Username(),
			Location: int64(1000 + i),
		})
	}

	r, err := registry.New(discardLogger(), path)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, r.Upsert(e))
	}

	reopened, err := registry.New(discardLogger(), path)
	require.NoError(t, err)
	assert.Equal(t, entries, reopened.All())
}

func TestOpenMissingFile(t *testing.T) {
	r, err := registry.New(discardLogger(), filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, r.All())
}

func TestOpenMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := registry.New(discardLogger(), path)
	require.ErrorIs(t, err, storage.ErrMalformedDocument)
}
