package saves

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

// MaxRolls is the number of save generations per world (roll 0 plus nine rotations)
const MaxRolls = 10

// ServerWorldHex is the fixed world id a dedicated server writes under
const ServerWorldHex = "3ad85aea"

// WorldSlotMapping binds the 10 fixed singleplayer slots to their world ids.
// The game derives these from the slot position, so they never change.
var WorldSlotMapping = map[int]string{
	1:  "3ad85aea",
	2:  "3ad85aeb",
	3:  "3ad85aec",
	4:  "3ad85aed",
	5:  "3ad85aee",
	6:  "3ad85aef",
	7:  "3ad85af0",
	8:  "3ad85af1",
	9:  "3ad85af2",
	10: "3ad85af3",
}

var (
	rollFilePattern  = regexp.MustCompile(`^([0-9a-fA-F]{8})(?:-([0-9]))?$`)
	indexFilePattern = regexp.MustCompile(`^([0-9a-fA-F]{8})-index$`)
)

// RollFileName returns the on-disk name for one roll of a world.
// Roll 0 has no suffix; rolls 1-9 append "-<n>".
func RollFileName(worldHex string, rollIndex int) string {
	if rollIndex == 0 {
		return worldHex
	}
	return fmt.Sprintf("%s-%d", worldHex, rollIndex)
}

// IndexFileName returns the side-car index file name for a world
func IndexFileName(worldHex string) string {
	return worldHex + "-index"
}

// MatchRollFile parses a roll file name back into (worldHex, rollIndex).
// World ids are reported lowercased.
func MatchRollFile(name string) (string, int, bool) {
	match := rollFilePattern.FindStringSubmatch(name)
	if match == nil {
		return "", 0, false
	}

	roll := 0
	if match[2] != "" {
		parsed, err := strconv.Atoi(match[2])
		if err != nil {
			return "", 0, false
		}
		roll = parsed
	}

	return strings.ToLower(match[1]), roll, true
}

// MatchIndexFile parses an index file name into its world id (lowercased)
func MatchIndexFile(name string) (string, bool) {
	match := indexFilePattern.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return strings.ToLower(match[1]), true
}

// SlotWorldHex resolves a slot number to its world id
func SlotWorldHex(slotNumber int) (string, error) {
	worldHex, ok := WorldSlotMapping[slotNumber]
	if !ok {
		return "", models.NewValidationError("slot", fmt.Sprintf("slot %d is not a valid slot (1-10)", slotNumber))
	}
	return worldHex, nil
}

// ValidateRollIndex rejects roll indices outside [0,9]
func ValidateRollIndex(rollIndex int) error {
	if rollIndex < 0 || rollIndex >= MaxRolls {
		return models.NewValidationError("roll_index", fmt.Sprintf("roll index %d must be between 0 and 9", rollIndex))
	}
	return nil
}
