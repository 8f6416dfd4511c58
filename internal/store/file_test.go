package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindflow/internal/domain"
)

func TestFileBackendWritesOwnerKeyedDocument(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	b := NewFileBackend(fs, "/var/lib/remindflow/reminders.json")

	recs := []domain.Record{{ID: "rem_1", Text: "buy milk", Time: "2024-01-01T12:00:00Z"}}
	require.NoError(t, b.Save(ctx, "alice", recs))

	raw, err := afero.ReadFile(fs, "/var/lib/remindflow/reminders.json")
	require.NoError(t, err)
	var doc map[string][]domain.Record
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, map[string][]domain.Record{"alice": recs}, doc)

	entries, err := afero.ReadDir(fs, "/var/lib/remindflow")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileBackendEmptyListRemovesOwner(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	b := NewFileBackend(fs, "/r.json")
	require.NoError(t, b.Save(ctx, "alice", []domain.Record{{ID: "rem_1", Text: "x", Time: "2024-01-01T12:00:00Z"}}))
	require.NoError(t, b.Save(ctx, "bob", []domain.Record{{ID: "rem_2", Text: "y", Time: "2024-01-01T12:00:00Z"}}))
	require.NoError(t, b.Save(ctx, "alice", nil))

	out, err := NewFileBackend(fs, "/r.json").Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestFileBackendMissingFileIsEmpty(t *testing.T) {
	out, err := NewFileBackend(afero.NewMemMapFs(), "/nope.json").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFileBackendCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r.json", []byte("{not json"), 0o644))
	_, err := NewFileBackend(fs, "/r.json").Load(context.Background())
	assert.Error(t, err)
}

func TestFileBackendReadOnlyFsFailsSave(t *testing.T) {
	b := NewFileBackend(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/r.json")
	err := b.Save(context.Background(), "alice", []domain.Record{{ID: "rem_1", Text: "x", Time: "2024-01-01T12:00:00Z"}})
	assert.Error(t, err)
}
