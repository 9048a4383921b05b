package saves

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// WorldNamer resolves a world id prefix to a human-readable name. The
// returned source is one of NameSourceMapping, NameSourceInfo or
// NameSourceFallback; name is empty when nothing could be resolved.
type WorldNamer interface {
	WorldName(prefix string, rootDir string) (string, string)
}

// Scanner discovers save slots under a singleplayer save root. Scans are
// best-effort: individual file problems become warnings, never failures.
type Scanner struct {
	index *IndexService
	namer WorldNamer
}

// NewScanner creates a new save scanner. namer may be nil, in which case
// all slots report the fallback name source.
func NewScanner(index *IndexService, namer WorldNamer) *Scanner {
	if index == nil {
		index = NewIndexService()
	}
	return &Scanner{index: index, namer: namer}
}

// ScanSingleplayer walks root and returns every slot that has at least one
// roll file on disk. A missing root yields an empty result plus a warning.
func (s *Scanner) ScanSingleplayer(root string) SaveScanResult {
	effectiveRoot := s.resolveEffectiveRoot(absPath(root))

	logger.Info("SCANNER: Scanning singleplayer root", map[string]interface{}{
		"root": effectiveRoot,
	})

	var warnings []string
	var slots []SaveSlot
	var missingLatestSlots []int
	nameCache := map[string][2]string{}

	if _, err := os.Stat(effectiveRoot); err != nil {
		warnings = append(warnings, fmt.Sprintf("save root does not exist: %s", effectiveRoot))
		logger.Warn("SCANNER: Save root does not exist", map[string]interface{}{
			"root": effectiveRoot,
		})
	}

	for slotNumber := 1; slotNumber <= len(WorldSlotMapping); slotNumber++ {
		worldHex := WorldSlotMapping[slotNumber]
		slot, missingLatest := s.scanSlot(effectiveRoot, slotNumber, worldHex, &warnings, nameCache)
		if slot == nil {
			continue
		}
		slots = append(slots, *slot)
		if missingLatest {
			missingLatestSlots = append(missingLatestSlots, slotNumber)
		}
	}

	// One grouped warning instead of one per slot, so a fresh install with
	// many index-less slots does not flood the warning list.
	if len(missingLatestSlots) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"no latest roll recorded for slots: %s", FormatSlotRanges(missingLatestSlots)))
	}

	logger.Info("SCANNER: Scan finished", map[string]interface{}{
		"slots":    len(slots),
		"warnings": len(warnings),
	})

	return SaveScanResult{Root: effectiveRoot, Slots: slots, Warnings: warnings}
}

// resolveEffectiveRoot handles the platform save-sync redirection: when
// root itself holds no recognizable save files but root/remote does, the
// scan silently continues under root/remote.
func (s *Scanner) resolveEffectiveRoot(root string) string {
	remoteRoot := filepath.Join(root, "remote")

	rootHasSaves := containsExpectedSaveFiles(root)
	remoteHasSaves := containsExpectedSaveFiles(remoteRoot)

	if remoteHasSaves && !rootHasSaves {
		logger.Info("SCANNER: Switching to remote subdirectory", map[string]interface{}{
			"root": remoteRoot,
		})
		return remoteRoot
	}

	return root
}

func containsExpectedSaveFiles(root string) bool {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return false
	}

	for _, worldHex := range WorldSlotMapping {
		if isRegularFile(filepath.Join(root, worldHex)) ||
			isRegularFile(filepath.Join(root, IndexFileName(worldHex))) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanSlot(
	root string,
	slotNumber int,
	worldHex string,
	warnings *[]string,
	nameCache map[string][2]string,
) (*SaveSlot, bool) {
	rolls := make([]SaveRoll, 0, MaxRolls)
	existingRolls := 0

	for rollIndex := 0; rollIndex < MaxRolls; rollIndex++ {
		rollPath := filepath.Join(root, RollFileName(worldHex, rollIndex))
		roll := SaveRoll{RollIndex: rollIndex, Path: rollPath}

		info, err := os.Stat(rollPath)
		if err == nil && info.Mode().IsRegular() {
			roll.Exists = true
			roll.SizeBytes = info.Size()
			modified := info.ModTime()
			roll.ModifiedAt = &modified
			existingRolls++
		} else if err == nil {
			// Present but not a regular file; treated as absent.
		} else if !os.IsNotExist(err) {
			*warnings = append(*warnings, fmt.Sprintf("failed to stat save file: %s", filepath.Base(rollPath)))
		}

		rolls = append(rolls, roll)
	}

	if existingRolls == 0 {
		logger.Debug("SCANNER: Slot empty, skipped", map[string]interface{}{
			"slot": slotNumber,
		})
		return nil, false
	}

	indexPath := filepath.Join(root, IndexFileName(worldHex))
	latest := s.index.ReadLatest(indexPath)

	displayName, nameSource := s.resolveName(root, worldHex, nameCache)

	var lastModified *time.Time
	var totalSize int64
	for _, roll := range rolls {
		if !roll.Exists {
			continue
		}
		totalSize += roll.SizeBytes
		if roll.ModifiedAt != nil && (lastModified == nil || roll.ModifiedAt.After(*lastModified)) {
			modified := *roll.ModifiedAt
			lastModified = &modified
		}
	}

	logger.Info("SCANNER: Slot scanned", map[string]interface{}{
		"slot":           slotNumber,
		"world":          worldHex,
		"existing_rolls": existingRolls,
		"latest":         latestForLog(latest),
	})

	return &SaveSlot{
		SlotNumber:      slotNumber,
		WorldIDHex:      worldHex,
		RootDir:         root,
		Rolls:           rolls,
		IndexPath:       indexPath,
		Latest:          latest,
		DisplayName:     displayName,
		WorldNameSource: nameSource,
		LastModified:    lastModified,
		TotalSizeBytes:  totalSize,
	}, latest == nil
}

// resolveName caches per world id within one scan; info-file extraction is
// expensive enough that repeating it per slot would dominate scan time.
func (s *Scanner) resolveName(root, worldHex string, cache map[string][2]string) (string, string) {
	if s.namer == nil {
		return "", NameSourceFallback
	}

	prefix := strings.ToLower(worldHex)
	if cached, ok := cache[prefix]; ok {
		return cached[0], cached[1]
	}

	name, source := s.namer.WorldName(prefix, root)
	cache[prefix] = [2]string{name, source}
	return name, source
}

// FormatSlotRanges compresses sorted slot numbers into a compact range
// expression, e.g. [3 4 5 7] -> "3-5, 7".
func FormatSlotRanges(slots []int) string {
	if len(slots) == 0 {
		return ""
	}

	unique := map[int]struct{}{}
	for _, slot := range slots {
		unique[slot] = struct{}{}
	}
	ordered := make([]int, 0, len(unique))
	for slot := range unique {
		ordered = append(ordered, slot)
	}
	sort.Ints(ordered)

	var parts []string
	start, end := ordered[0], ordered[0]
	flush := func() {
		if start == end {
			parts = append(parts, fmt.Sprintf("%d", start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, end))
		}
	}

	for _, current := range ordered[1:] {
		if current == end+1 {
			end = current
			continue
		}
		flush()
		start, end = current, current
	}
	flush()

	return strings.Join(parts, ", ")
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func absPath(path string) string {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return resolved
}

func latestForLog(latest *int) interface{} {
	if latest == nil {
		return nil
	}
	return *latest
}
