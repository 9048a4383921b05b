package saves

import (
	"time"
)

// Name sources reported for a slot's display name
const (
	NameSourceMapping  = "mapping"
	NameSourceInfo     = "info"
	NameSourceFallback = "fallback"
)

// SaveRoll is one numbered save file within a slot. Immutable once produced
// by a scan.
type SaveRoll struct {
	RollIndex  int
	Path       string
	Exists     bool
	SizeBytes  int64
	ModifiedAt *time.Time
}

// SaveSlot is one of the 10 fixed local world slots. Always carries exactly
// MaxRolls roll entries; placeholders are present for files that do not
// exist. Rebuilt fresh on every scan, never mutated in place.
type SaveSlot struct {
	SlotNumber      int
	WorldIDHex      string
	RootDir         string
	Rolls           []SaveRoll
	IndexPath       string
	Latest          *int // nil when the index file is missing or invalid
	DisplayName     string
	WorldNameSource string
	LastModified    *time.Time
	TotalSizeBytes  int64
}

// SaveScanResult is the outcome of one singleplayer scan
type SaveScanResult struct {
	Root     string
	Slots    []SaveSlot
	Warnings []string
}
