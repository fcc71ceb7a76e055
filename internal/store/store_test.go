package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leighmacdonald/kmon/internal/store"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := store.Open(ctx, filepath.Join(t.TempDir(), "kmon.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	history := store.NewHistory(database)

	empty, err := history.Recent(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, empty)

	base := time.Now().Add(-time.Minute)
	require.NoError(t, history.Record(ctx, store.Entry{Command: "Unload", Module: "snd_pcm", Success: true, CreatedOn: base}))
	require.NoError(t, history.Record(ctx, store.Entry{Command: "Load", Module: "bogus", Error: "not found", CreatedOn: base.Add(time.Second)}))
	require.NoError(t, history.Record(ctx, store.Entry{Command: "Blacklist", Module: "pcspkr", Success: true, CreatedOn: base.Add(2 * time.Second)}))

	entries, err := history.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "pcspkr", entries[0].Module)
	require.True(t, entries[0].Success)
	require.Equal(t, "bogus", entries[1].Module)
	require.False(t, entries[1].Success)
	require.Equal(t, "not found", entries[1].Error)
	require.Equal(t, base.Add(time.Second).UnixMilli(), entries[1].CreatedOn.UnixMilli())
}

func TestMigrateDownUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := store.Open(ctx, "", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, store.Migrate(database, store.MigrateDn))
	require.NoError(t, store.Migrate(database, store.MigrateUp))
	require.NoError(t, store.Migrate(database, store.MigrateUp))

	require.NoError(t, store.NewHistory(database).Record(ctx, store.Entry{Command: "Load", Module: "loop"}))
}
