// internal/store/file_test.go
package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavernlabs/liarsbar/internal/game"
)

func sampleSnapshot() *game.Snapshot {
	return &game.Snapshot{
		Version: game.SnapshotVersion,
		SavedAt: time.Now().UTC(),
		Rooms: map[string]game.RoomSnapshot{
			"tavern": {
				ID:      "tavern",
				OwnerID: "alice",
				Phase:   game.PhaseWaiting,
				Players: map[string]game.PlayerSnapshot{
					"alice": {ID: "alice", Name: "Alice", Alive: true},
				},
				Order: []string{"alice"},
			},
		},
		PlayerIndex: map[string]string{"alice": "tavern"},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := NewFileStore(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.Save(ctx, sampleSnapshot()))

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, game.SnapshotVersion, snap.Version)
	require.Contains(t, snap.Rooms, "tavern")
	assert.Equal(t, "alice", snap.Rooms["tavern"].OwnerID)
	assert.Equal(t, "tavern", snap.PlayerIndex["alice"])
}

func TestFileStoreMissingFile(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "a missing snapshot is not an error")
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	st, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), sampleSnapshot()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), sampleSnapshot()))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestFileStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Save(ctx, sampleSnapshot()))

	next := sampleSnapshot()
	next.Rooms = map[string]game.RoomSnapshot{}
	next.PlayerIndex = map[string]string{}
	require.NoError(t, st.Save(ctx, next))

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Rooms)
}
