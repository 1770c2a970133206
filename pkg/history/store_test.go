package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2023, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, q := range []string{"primeira", "segunda", "terceira"} {
		err := store.Record(ctx, Entry{
			AskedAt:    base.Add(time.Duration(i) * time.Minute),
			Question:   q,
			TemplateID: "Template_1A",
			Entities:   map[string]any{"DATA": "2023-03-10"},
			Outcome:    OutcomeAnswered,
			Duration:   15 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "terceira", entries[0].Question)
	assert.Equal(t, "segunda", entries[1].Question)
	assert.Equal(t, "2023-03-10", entries[0].Entities["DATA"])
	assert.Equal(t, 15*time.Millisecond, entries[0].Duration)
	assert.NotEmpty(t, entries[0].ID)
}

func TestRecentEmpty(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordFillsDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{
		Question: "qual o preco da vale",
		Outcome:  OutcomeNoTemplate,
	}))

	entries, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].AskedAt.IsZero())
	assert.Equal(t, OutcomeNoTemplate, entries[0].Outcome)
}
