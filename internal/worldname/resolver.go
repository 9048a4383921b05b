package worldname

import (
	"strings"

	"github.com/shroudkeep/shroudkeep/internal/saves"
)

// Resolver turns a world-id prefix into a display name. Resolution order:
// explicit mapping entry, then extraction from the world's binary metadata
// file, then no name at all.
type Resolver struct {
	defaultMappingPath string
	userMappingPath    string
}

// NewResolver creates a resolver reading the bundled mapping at
// defaultMappingPath and user overrides at userMappingPath. Either path may
// be empty.
func NewResolver(defaultMappingPath, userMappingPath string) *Resolver {
	return &Resolver{
		defaultMappingPath: defaultMappingPath,
		userMappingPath:    userMappingPath,
	}
}

// WorldName resolves the display name for a world-id prefix, consulting
// save files under rootDir when the mapping has no entry.
func (r *Resolver) WorldName(prefix, rootDir string) (string, string) {
	mapping := loadMergedMapping(r.defaultMappingPath, r.userMappingPath)
	if name, ok := mapping[strings.ToLower(strings.TrimSpace(prefix))]; ok {
		return name, saves.NameSourceMapping
	}

	infoPath := resolveInfoFile(rootDir, prefix)
	if infoPath == "" {
		return "", saves.NameSourceFallback
	}

	if name, _ := extractWorldNameFromInfoFile(infoPath); name != "" {
		return name, saves.NameSourceInfo
	}
	return "", saves.NameSourceFallback
}
