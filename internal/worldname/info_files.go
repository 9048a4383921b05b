package worldname

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// resolveInfoFile picks the metadata rotation to read for a world prefix.
// The _info family keeps its own index side-car; when that is missing or
// stale the highest-numbered rotation on disk wins.
func resolveInfoFile(rootDir, prefix string) string {
	indexPath := filepath.Join(rootDir, fmt.Sprintf("%s_info-index", prefix))

	if isRegular(indexPath) {
		latest := saves.NewIndexService().ReadLatest(indexPath)
		if latest == nil {
			logger.Warn("WORLDNAME: Invalid _info-index", map[string]interface{}{"prefix": prefix})
			return resolveWithoutIndex(rootDir, prefix)
		}

		candidate := filepath.Join(rootDir, fmt.Sprintf("%s_info", prefix))
		if *latest != 0 {
			candidate = filepath.Join(rootDir, fmt.Sprintf("%s_info-%d", prefix, *latest))
		}
		if isRegular(candidate) {
			return candidate
		}
		return resolveWithoutIndex(rootDir, prefix)
	}

	return resolveWithoutIndex(rootDir, prefix)
}

func resolveWithoutIndex(rootDir, prefix string) string {
	base := filepath.Join(rootDir, fmt.Sprintf("%s_info", prefix))
	if isRegular(base) {
		return base
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return ""
	}

	pattern := prefix + "_info-"
	highest := -1
	highestPath := ""
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), pattern) {
			continue
		}
		value, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), pattern))
		if err != nil || value < 0 {
			continue
		}
		if value > highest {
			highest = value
			highestPath = filepath.Join(rootDir, entry.Name())
		}
	}

	return highestPath
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
