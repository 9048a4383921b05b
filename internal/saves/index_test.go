package saves

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

func TestWriteThenReadLatestRoundTrip(t *testing.T) {
	service := NewIndexService()
	indexPath := filepath.Join(t.TempDir(), "3ad85aea-index")

	for latest := 0; latest < MaxRolls; latest++ {
		require.NoError(t, service.WriteLatest(indexPath, latest))

		got := service.ReadLatest(indexPath)
		require.NotNil(t, got)
		assert.Equal(t, latest, *got)
	}
}

func TestWriteLatestPreservesUnknownKeys(t *testing.T) {
	service := NewIndexService()
	indexPath := filepath.Join(t.TempDir(), "3ad85aea-index")

	original := `{"latest": 2, "generation": 41, "note": "keep me"}`
	require.NoError(t, os.WriteFile(indexPath, []byte(original), 0644))

	require.NoError(t, service.WriteLatest(indexPath, 7))

	raw, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Equal(t, float64(7), payload["latest"])
	assert.Equal(t, float64(41), payload["generation"])
	assert.Equal(t, "keep me", payload["note"])
}

func TestWriteLatestRejectsOutOfRange(t *testing.T) {
	service := NewIndexService()
	indexPath := filepath.Join(t.TempDir(), "3ad85aea-index")

	require.NoError(t, service.WriteLatest(indexPath, 4))
	before, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	for _, latest := range []int{-1, 10, 42} {
		err := service.WriteLatest(indexPath, latest)
		require.Error(t, err)
		assert.True(t, models.IsValidationError(err))
	}

	after, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed writes must leave the file unchanged")
}

func TestReadLatestDegradesToNil(t *testing.T) {
	service := NewIndexService()
	dir := t.TempDir()

	cases := map[string]string{
		"missing":      "",
		"not-json":     "not json at all",
		"not-object":   `[1, 2, 3]`,
		"no-latest":    `{"generation": 3}`,
		"string":       `{"latest": "3"}`,
		"fractional":   `{"latest": 3.5}`,
		"out-of-range": `{"latest": 12}`,
		"negative":     `{"latest": -1}`,
	}

	for name, content := range cases {
		indexPath := filepath.Join(dir, name)
		if content != "" {
			require.NoError(t, os.WriteFile(indexPath, []byte(content), 0644))
		}
		assert.Nilf(t, service.ReadLatest(indexPath), "case %s", name)
	}
}

func TestWriteLatestCreatesParentDirectories(t *testing.T) {
	service := NewIndexService()
	indexPath := filepath.Join(t.TempDir(), "nested", "deeper", "3ad85aea-index")

	require.NoError(t, service.WriteLatest(indexPath, 0))

	got := service.ReadLatest(indexPath)
	require.NotNil(t, got)
	assert.Equal(t, 0, *got)
}

func TestWriteLatestReplacesCorruptFile(t *testing.T) {
	service := NewIndexService()
	indexPath := filepath.Join(t.TempDir(), "3ad85aea-index")

	require.NoError(t, os.WriteFile(indexPath, []byte("garbage"), 0644))
	require.NoError(t, service.WriteLatest(indexPath, 5))

	got := service.ReadLatest(indexPath)
	require.NotNil(t, got)
	assert.Equal(t, 5, *got)
}

func TestParseLatestBytes(t *testing.T) {
	latest := ParseLatestBytes([]byte(`{"latest": 8, "extra": true}`))
	require.NotNil(t, latest)
	assert.Equal(t, 8, *latest)

	assert.Nil(t, ParseLatestBytes([]byte(`{"latest": "8"}`)))
	assert.Nil(t, ParseLatestBytes([]byte(`broken`)))
}

func TestEncodeLatestRoundTrip(t *testing.T) {
	latest := ParseLatestBytes(EncodeLatest(3))
	require.NotNil(t, latest)
	assert.Equal(t, 3, *latest)
}
