package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
)

func writeLocalRoll(t *testing.T, root string, slot, roll int, data string) string {
	t.Helper()
	worldHex, err := saves.SlotWorldHex(slot)
	require.NoError(t, err)
	path := filepath.Join(root, saves.RollFileName(worldHex, roll))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func noTempFiles(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}

func TestExecuteSlotToSlot(t *testing.T) {
	root := t.TempDir()
	writeLocalRoll(t, root, 1, 3, "slot one roll three")

	plan, err := PlanSlotToSlot(root, 1, 3, 2, 0)
	require.NoError(t, err)

	var stages []string
	result, err := NewExecutor(nil).Execute(context.Background(), nil, plan, func(percent int, stage string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(len("slot one roll three")), result.BytesCopied)
	assert.Equal(t, []string{"preparing", "copying save data", "updating index", "done"}, stages)

	targetWorld, _ := saves.SlotWorldHex(2)
	data, err := os.ReadFile(filepath.Join(root, saves.RollFileName(targetWorld, 0)))
	require.NoError(t, err)
	assert.Equal(t, "slot one roll three", string(data))

	latest := saves.NewIndexService().ReadLatest(filepath.Join(root, saves.IndexFileName(targetWorld)))
	require.NotNil(t, latest)
	assert.Equal(t, 0, *latest)

	noTempFiles(t, root)
}

func TestExecuteSlotToServerWritesIndexLast(t *testing.T) {
	root := t.TempDir()
	writeLocalRoll(t, root, 3, 0, "upload me")

	client := remote.NewMemoryClient()
	plan, err := PlanSlotToServer(root, 3, 0, "/savegame", 5)
	require.NoError(t, err)

	result, err := NewExecutor(nil).Execute(context.Background(), client, plan, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []byte("upload me"), client.FileContent("/savegame/3ad85aea-5"))
	assert.JSONEq(t, `{"latest": 5}`, string(client.FileContent("/savegame/3ad85aea-index")))
	assert.Equal(t, 2, client.Uploads)
}

func TestExecuteServerToSlot(t *testing.T) {
	root := t.TempDir()
	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea-2", []byte("server roll two"))

	plan, err := PlanServerToSlot("/savegame", 2, root, 4, 1)
	require.NoError(t, err)

	result, err := NewExecutor(nil).Execute(context.Background(), client, plan, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	targetWorld, _ := saves.SlotWorldHex(4)
	data, err := os.ReadFile(filepath.Join(root, saves.RollFileName(targetWorld, 1)))
	require.NoError(t, err)
	assert.Equal(t, "server roll two", string(data))

	latest := saves.NewIndexService().ReadLatest(filepath.Join(root, saves.IndexFileName(targetWorld)))
	require.NotNil(t, latest)
	assert.Equal(t, 1, *latest)
}

func TestExecuteFailedUploadLeavesIndexAlone(t *testing.T) {
	root := t.TempDir()
	writeLocalRoll(t, root, 1, 0, "payload")

	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea-index", []byte(`{"latest": 2}`))
	client.FailOn["upload"] = true

	plan, err := PlanSlotToServer(root, 1, 0, "/savegame", 0)
	require.NoError(t, err)

	_, err = NewExecutor(nil).Execute(context.Background(), client, plan, nil)
	require.Error(t, err)

	assert.JSONEq(t, `{"latest": 2}`, string(client.FileContent("/savegame/3ad85aea-index")))
}

func TestExecuteFailedDownloadLeavesNoDebris(t *testing.T) {
	root := t.TempDir()
	client := remote.NewMemoryClient()
	client.FailOn["download"] = true

	plan, err := PlanServerToSlot("/savegame", 0, root, 1, 0)
	require.NoError(t, err)

	_, err = NewExecutor(nil).Execute(context.Background(), client, plan, nil)
	require.Error(t, err)

	targetWorld, _ := saves.SlotWorldHex(1)
	assert.Nil(t, saves.NewIndexService().ReadLatest(filepath.Join(root, saves.IndexFileName(targetWorld))))
	noTempFiles(t, root)
}

func TestExecuteMissingSourceFails(t *testing.T) {
	root := t.TempDir()

	plan, err := PlanSlotToSlot(root, 1, 0, 2, 0)
	require.NoError(t, err)

	_, err = NewExecutor(nil).Execute(context.Background(), nil, plan, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestExecuteRemotePlanRequiresClient(t *testing.T) {
	root := t.TempDir()
	writeLocalRoll(t, root, 1, 0, "payload")

	plan, err := PlanSlotToServer(root, 1, 0, "/savegame", 0)
	require.NoError(t, err)

	_, err = NewExecutor(nil).Execute(context.Background(), nil, plan, nil)
	require.Error(t, err)
}

func TestPlanValidation(t *testing.T) {
	root := t.TempDir()

	_, err := PlanSlotToSlot(root, 1, 0, 1, 0)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))

	_, err = PlanSlotToSlot(root, 0, 0, 1, 0)
	require.Error(t, err)

	_, err = PlanSlotToSlot(root, 1, 10, 2, 0)
	require.Error(t, err)

	_, err = PlanSlotToServer(root, 1, 0, "/savegame", 10)
	require.Error(t, err)

	_, err = PlanServerToSlot("/savegame", -1, root, 1, 0)
	require.Error(t, err)
}
