package worldname

import (
	"encoding/json"
	"os"
	"strings"
)

// loadMergedMapping layers the user's mapping file over the bundled
// defaults. Either file may be absent; a user entry always wins.
func loadMergedMapping(defaultPath, userPath string) map[string]string {
	merged := loadMappingFile(defaultPath)
	for key, value := range loadMappingFile(userPath) {
		merged[key] = value
	}
	return merged
}

// loadMappingFile reads a JSON object of world-id prefix to display name.
// Keys are lowercased; malformed files and non-string entries are ignored.
func loadMappingFile(path string) map[string]string {
	result := make(map[string]string)
	if path == "" {
		return result
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return result
	}

	for key, value := range payload {
		name, ok := value.(string)
		if !ok {
			continue
		}
		normalizedKey := strings.ToLower(strings.TrimSpace(key))
		normalizedName := strings.TrimSpace(name)
		if normalizedKey != "" && normalizedName != "" {
			result[normalizedKey] = normalizedName
		}
	}
	return result
}
