package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	assert.FileExists(t, store.Path())
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open("")
	assert.Error(t, err)
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.March, 21, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx,
		Entry{RunID: "run-1", Index: 0, Label: "20-02-2024 A", Period: "2024-02-15", Name: "Busta_24_02_AGG.pdf", ArchivedAt: base},
	))
	require.NoError(t, store.Record(ctx,
		Entry{RunID: "run-2", Index: 2, Label: "05-03-2024 B", Period: "2024-02-01", Name: "Busta_24_02.pdf", ArchivedAt: base.Add(time.Hour)},
		Entry{RunID: "run-2", Index: 0, Label: "20-03-2024 C", Period: "2024-03-15", Name: "Busta_24_03_AGG.pdf", ArchivedAt: base.Add(time.Hour + time.Millisecond)},
	))

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Busta_24_03_AGG.pdf", recent[0].Name)
	assert.Equal(t, "Busta_24_02.pdf", recent[1].Name)
	assert.True(t, recent[0].ArchivedAt.Equal(base.Add(time.Hour+time.Millisecond)))

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRun(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx,
		Entry{RunID: "run-1", Index: 5, Label: "b", Period: "2024-02-01", Name: "b.pdf"},
		Entry{RunID: "run-1", Index: 1, Label: "a", Period: "2024-03-15", Name: "a.pdf"},
		Entry{RunID: "run-2", Index: 0, Label: "c", Period: "2024-04-01", Name: "c.pdf"},
	))

	entries, err := store.Run(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, 5, entries[1].Index)
	assert.False(t, entries[0].ArchivedAt.IsZero())

	none, err := store.Run(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecord_NothingToRecord(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	require.NoError(t, store.Record(context.Background()))

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Entry{RunID: "r", Name: "x.pdf", Label: "x", Period: "2024-01-01"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecent_CorruptTimestamp(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	_, err := store.db.ExecContext(ctx, `INSERT INTO archived (run_id, row_index, label, period, name, archived_at)
		VALUES ('run-1', 0, '20-03-2024 A', '2024-03-15', 'Busta_24_03_AGG.pdf', 'yesterday')`)
	require.NoError(t, err)

	_, err = store.Recent(ctx, 0)
	assert.ErrorContains(t, err, "Busta_24_03_AGG.pdf")

	_, err = store.Run(ctx, "run-1")
	assert.Error(t, err)
}
