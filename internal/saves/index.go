package saves

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// IndexService reads and writes the JSON side-car index file that records
// which roll is current for a world. The file is the single source of truth
// for "latest" and must only be updated after the roll it points at is
// fully written.
type IndexService struct{}

// NewIndexService creates a new index service
func NewIndexService() *IndexService {
	return &IndexService{}
}

// ReadLatest returns the latest roll recorded at indexPath, or nil if the
// file is missing, unreadable, not a JSON object, or holds no integer
// "latest" in [0,9]. Malformed input degrades to nil, never to an error.
func (s *IndexService) ReadLatest(indexPath string) *int {
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("INDEX: Failed to read index file", map[string]interface{}{
				"path":  filepath.Base(indexPath),
				"error": err.Error(),
			})
		}
		return nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("INDEX: Invalid index JSON", map[string]interface{}{
			"path": filepath.Base(indexPath),
		})
		return nil
	}

	return ParseLatest(payload["latest"])
}

// WriteLatest merges latest into the JSON object at indexPath, preserving
// unknown keys, and creates parent directories as needed. Fails with a
// ValidationError when latest is outside [0,9]; the file is left unchanged.
func (s *IndexService) WriteLatest(indexPath string, latest int) error {
	if latest < 0 || latest >= MaxRolls {
		return models.NewValidationError("latest", fmt.Sprintf("latest %d must be between 0 and 9", latest))
	}

	payload := map[string]json.RawMessage{}
	if raw, err := os.ReadFile(indexPath); err == nil {
		var existing map[string]json.RawMessage
		if err := json.Unmarshal(raw, &existing); err == nil && existing != nil {
			payload = existing
		}
	}

	encoded, err := json.Marshal(latest)
	if err != nil {
		return fmt.Errorf("failed to encode latest: %w", err)
	}
	payload["latest"] = encoded

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	return nil
}

// ParseLatest decodes a raw JSON value into a roll index, returning nil for
// anything that is not an integer in [0,9]. Floats with fractions are
// rejected so "latest": 3.5 does not silently round.
func ParseLatest(raw json.RawMessage) *int {
	if raw == nil {
		return nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return nil
	}

	value := int(number)
	if float64(value) != number {
		return nil
	}
	if value < 0 || value >= MaxRolls {
		return nil
	}

	return &value
}

// ParseLatestBytes decodes a whole index document (as read from disk or a
// remote server) and extracts its latest roll, nil on any malformation.
func ParseLatestBytes(data []byte) *int {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return ParseLatest(payload["latest"])
}

// EncodeLatest serializes a minimal {"latest": n} document, the shape
// uploaded to remote index files.
func EncodeLatest(latest int) []byte {
	data, _ := json.MarshalIndent(map[string]int{"latest": latest}, "", "  ")
	return data
}
