package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
)

func TestScanReadsRollsAndIndex(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea", []byte("roll zero"))
	client.Seed("/savegame/3ad85aea-4", []byte("roll four"))
	client.Seed("/savegame/3ad85aea-index", []byte(`{"latest": 4}`))
	client.Seed("/savegame/unrelated.db", []byte("ignore me"))

	result, err := NewWorldService(client).Scan(ctx, "savegame/")
	require.NoError(t, err)

	assert.Equal(t, "/savegame", result.RemoteRoot)
	assert.Equal(t, saves.ServerWorldHex, result.WorldIDHex)
	require.Len(t, result.Rolls, saves.MaxRolls)

	assert.True(t, result.Rolls[0].Exists)
	assert.Equal(t, int64(len("roll zero")), result.Rolls[0].SizeBytes)
	assert.True(t, result.Rolls[4].Exists)
	assert.False(t, result.Rolls[1].Exists)

	require.NotNil(t, result.Latest)
	assert.Equal(t, 4, *result.Latest)
	assert.NotNil(t, result.LastModified)
	assert.Empty(t, result.Warnings)
}

func TestScanWarnsOnMissingIndex(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea", []byte("roll zero"))

	result, err := NewWorldService(client).Scan(ctx, "/savegame")
	require.NoError(t, err)

	assert.Nil(t, result.Latest)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing")
}

func TestScanWarnsOnInvalidIndex(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()
	client.Seed("/savegame/3ad85aea", []byte("roll zero"))
	client.Seed("/savegame/3ad85aea-index", []byte(`{"latest": "four"}`))

	result, err := NewWorldService(client).Scan(ctx, "/savegame")
	require.NoError(t, err)

	assert.Nil(t, result.Latest)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "invalid")
}

func TestScanFailsWhenListingFails(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()
	client.FailOn["list"] = true

	_, err := NewWorldService(client).Scan(ctx, "/savegame")
	require.Error(t, err)
}

func TestWriteLatestUploadsIndex(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()

	service := NewWorldService(client)
	require.NoError(t, service.WriteLatest(ctx, "/savegame", 7))

	assert.JSONEq(t, `{"latest": 7}`, string(client.FileContent("/savegame/3ad85aea-index")))
}

func TestWriteLatestRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMemoryClient()

	service := NewWorldService(client)
	require.Error(t, service.WriteLatest(ctx, "/savegame", 10))
	require.Error(t, service.WriteLatest(ctx, "/savegame", -1))

	assert.Nil(t, client.FileContent("/savegame/3ad85aea-index"))
	assert.Zero(t, client.Uploads)
}
