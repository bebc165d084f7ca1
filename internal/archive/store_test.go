package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-ai/skyward/internal/graph"
	"github.com/skyward-ai/skyward/internal/mission"
	"github.com/skyward-ai/skyward/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot(id types.ID, status mission.Status) *mission.Snapshot {
	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	return &mission.Snapshot{
		MissionID:    id,
		WorkflowName: "perimeter-sweep",
		Definition: &graph.Graph{
			Name: "perimeter-sweep",
			Nodes: []*graph.Node{
				{ID: "n1", Kind: graph.NodeKindStart},
				{ID: "n2", Kind: graph.NodeKindEnd},
			},
			Edges: []graph.Edge{{From: "n1", To: "n2"}},
		},
		Status:   status,
		Progress: 100,
		Logs: []mission.LogEvent{
			mission.NewLogEvent(mission.LogLevelSuccess, "mission complete, battery at 97%", ""),
		},
		CreatedAt:   started,
		StartedAt:   &started,
		CompletedAt: &completed,
	}
}

func TestStore_SaveAndGetSnapshot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := types.NewID()

	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(id, mission.StatusCompleted)))

	got, err := store.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.MissionID)
	assert.Equal(t, "perimeter-sweep", got.WorkflowName)
	assert.Equal(t, mission.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Definition)
	assert.Len(t, got.Definition.Nodes, 2)
	require.Len(t, got.Logs, 1)
	assert.Equal(t, "mission complete, battery at 97%", got.Logs[0].Message)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
}

func TestStore_SaveSnapshotUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := types.NewID()

	first := testSnapshot(id, mission.StatusRunning)
	first.Progress = 40
	require.NoError(t, store.SaveSnapshot(ctx, first))
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(id, mission.StatusCompleted)))

	got, err := store.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, mission.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)

	all, err := store.ListSnapshots(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_GetSnapshotNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSnapshot(context.Background(), types.NewID())
	require.Error(t, err)

	var serr *types.SkywardError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, types.ARCHIVE_NOT_FOUND, serr.Code)
}

func TestStore_ListSnapshotsByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(types.NewID(), mission.StatusCompleted)))
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(types.NewID(), mission.StatusCompleted)))
	failed := testSnapshot(types.NewID(), mission.StatusFailed)
	failed.Progress = 40
	require.NoError(t, store.SaveSnapshot(ctx, failed))

	completed, err := store.ListSnapshots(ctx, mission.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	all, err := store.ListSnapshots(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_SaveSnapshotNil(t *testing.T) {
	store := openTestStore(t)

	err := store.SaveSnapshot(context.Background(), nil)
	require.Error(t, err)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.db")
	ctx := context.Background()
	id := types.NewID()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot(id, mission.StatusCompleted)))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.MissionID)
}
