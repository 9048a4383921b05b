package backup

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shroudkeep/shroudkeep/internal/events"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "My_Server_EU_", SanitizeName("My Server (EU)"))
	assert.Equal(t, "host-1_prod", SanitizeName("host-1 prod"))
	assert.Equal(t, "unnamed", SanitizeName("   "))
}

func TestBackupSlotCopiesRollsAndIndex(t *testing.T) {
	saveRoot := t.TempDir()
	backupRoot := t.TempDir()

	worldHex, err := saves.SlotWorldHex(2)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(saveRoot, saves.RollFileName(worldHex, 0)), []byte("roll zero"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(saveRoot, saves.RollFileName(worldHex, 3)), []byte("roll three"), 0644))
	require.NoError(t, saves.NewIndexService().WriteLatest(filepath.Join(saveRoot, saves.IndexFileName(worldHex)), 3))

	bus := events.NewBus()
	var created int
	bus.Subscribe(events.BackupCreated, func(events.Event) { created++ })

	service := NewService(Options{BackupRoot: backupRoot}, bus)
	result, err := service.BackupSlot(saveRoot, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Files)
	assert.False(t, result.Zipped)
	assert.Equal(t, 1, created)

	data, err := os.ReadFile(filepath.Join(result.Path, saves.RollFileName(worldHex, 3)))
	require.NoError(t, err)
	assert.Equal(t, "roll three", string(data))

	assert.Contains(t, filepath.Base(result.Path), "slot02_"+worldHex)
	assert.Equal(t, "singleplayer", filepath.Base(filepath.Dir(result.Path)))
}

func TestBackupSlotFailsWhenEmpty(t *testing.T) {
	service := NewService(Options{BackupRoot: t.TempDir()}, nil)

	_, err := service.BackupSlot(t.TempDir(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to back up")
}

func TestBackupSlotZipsAndDropsUncompressed(t *testing.T) {
	saveRoot := t.TempDir()
	backupRoot := t.TempDir()

	worldHex, _ := saves.SlotWorldHex(1)
	require.NoError(t, os.WriteFile(filepath.Join(saveRoot, worldHex), []byte("roll zero"), 0644))

	service := NewService(Options{BackupRoot: backupRoot, ZipEnabled: true}, nil)
	result, err := service.BackupSlot(saveRoot, 1)
	require.NoError(t, err)

	assert.True(t, result.Zipped)
	assert.Equal(t, ".zip", filepath.Ext(result.Path))

	reader, err := zip.OpenReader(result.Path)
	require.NoError(t, err)
	defer reader.Close()
	require.Len(t, reader.File, 1)
	assert.Equal(t, worldHex, reader.File[0].Name)

	_, err = os.Stat(result.Path[:len(result.Path)-len(".zip")])
	assert.True(t, os.IsNotExist(err))
}

func TestBackupServerWorldDownloadsRolls(t *testing.T) {
	backupRoot := t.TempDir()
	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea", []byte("roll zero"))
	client.Seed("/savegame/3ad85aea-index", []byte(`{"latest": 0}`))
	client.Seed("/savegame/server.cfg", []byte("ignore"))

	service := NewService(Options{BackupRoot: backupRoot}, nil)
	result, err := service.BackupServerWorld(context.Background(), client, "/savegame", "My Server")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Contains(t, filepath.Base(result.Path), ServerMarker("My Server"))
	assert.Equal(t, "server", filepath.Base(filepath.Dir(result.Path)))

	_, err = os.Stat(filepath.Join(result.Path, "server.cfg"))
	assert.True(t, os.IsNotExist(err))
}

func TestBackupServerWorldPublishesFailure(t *testing.T) {
	client := remote.NewMemoryClient()
	client.FailOn["list"] = true

	bus := events.NewBus()
	var failed int
	bus.Subscribe(events.BackupFailed, func(events.Event) { failed++ })

	service := NewService(Options{BackupRoot: t.TempDir()}, bus)
	_, err := service.BackupServerWorld(context.Background(), client, "/savegame", "p")
	require.Error(t, err)
	assert.Equal(t, 1, failed)
}

func TestPruneServerBackupsKeepsNewest(t *testing.T) {
	backupRoot := t.TempDir()
	serverDir := filepath.Join(backupRoot, "server")
	require.NoError(t, os.MkdirAll(serverDir, 0755))

	marker := ServerMarker("prod")
	for _, stamp := range []string{"20260101-120000", "20260102-120000", "20260103-120000", "20260104-120000"} {
		require.NoError(t, os.MkdirAll(filepath.Join(serverDir, marker+"_"+stamp), 0755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(serverDir, ServerMarker("other")+"_20250101-000000"), 0755))

	service := NewService(Options{BackupRoot: backupRoot}, nil)
	removed, err := service.PruneServerBackups("prod", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(serverDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Contains(t, names, marker+"_20260104-120000")
	assert.Contains(t, names, marker+"_20260103-120000")
	assert.NotContains(t, names, marker+"_20260101-120000")
	assert.Contains(t, names, ServerMarker("other")+"_20250101-000000")
}

func TestPruneServerBackupsNoDirectory(t *testing.T) {
	service := NewService(Options{BackupRoot: filepath.Join(t.TempDir(), "missing")}, nil)
	removed, err := service.PruneServerBackups("prod", 3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
