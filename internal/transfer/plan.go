package transfer

import (
	"fmt"
	"path/filepath"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
)

// Direction names where the payload moves. The index side-car always lands
// next to the target payload.
type Direction string

const (
	DirectionLocalToLocal  Direction = "local_to_local"
	DirectionLocalToRemote Direction = "local_to_remote"
	DirectionRemoteToLocal Direction = "remote_to_local"
)

// Plan is a fully resolved transfer. Plans are value types; builders
// validate once and executors never mutate them.
type Plan struct {
	Direction Direction

	// SourcePath and TargetPath are local filesystem paths or normalized
	// remote paths depending on Direction.
	SourcePath string
	TargetPath string

	// TargetIndexPath is the side-car written after the payload arrives.
	TargetIndexPath string
	TargetLatest    int

	Description string
}

// PlanSlotToSlot copies one singleplayer roll onto another slot/roll and
// repoints the target slot's index.
func PlanSlotToSlot(localRoot string, sourceSlot, sourceRoll, targetSlot, targetRoll int) (Plan, error) {
	sourceWorld, err := saves.SlotWorldHex(sourceSlot)
	if err != nil {
		return Plan{}, err
	}
	targetWorld, err := saves.SlotWorldHex(targetSlot)
	if err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(sourceRoll); err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(targetRoll); err != nil {
		return Plan{}, err
	}
	if sourceSlot == targetSlot && sourceRoll == targetRoll {
		return Plan{}, models.NewValidationError("target", "source and target are the same file")
	}

	return Plan{
		Direction:       DirectionLocalToLocal,
		SourcePath:      filepath.Join(localRoot, saves.RollFileName(sourceWorld, sourceRoll)),
		TargetPath:      filepath.Join(localRoot, saves.RollFileName(targetWorld, targetRoll)),
		TargetIndexPath: filepath.Join(localRoot, saves.IndexFileName(targetWorld)),
		TargetLatest:    targetRoll,
		Description:     fmt.Sprintf("slot %d roll %d -> slot %d roll %d", sourceSlot, sourceRoll, targetSlot, targetRoll),
	}, nil
}

// PlanSlotToServer uploads a singleplayer roll as a server world roll and
// repoints the remote index.
func PlanSlotToServer(localRoot string, sourceSlot, sourceRoll int, remoteRoot string, targetRoll int) (Plan, error) {
	sourceWorld, err := saves.SlotWorldHex(sourceSlot)
	if err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(sourceRoll); err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(targetRoll); err != nil {
		return Plan{}, err
	}

	root := remote.NormalizePath(remoteRoot)
	return Plan{
		Direction:       DirectionLocalToRemote,
		SourcePath:      filepath.Join(localRoot, saves.RollFileName(sourceWorld, sourceRoll)),
		TargetPath:      remote.JoinPath(root, saves.RollFileName(saves.ServerWorldHex, targetRoll)),
		TargetIndexPath: remote.JoinPath(root, saves.IndexFileName(saves.ServerWorldHex)),
		TargetLatest:    targetRoll,
		Description:     fmt.Sprintf("slot %d roll %d -> server roll %d", sourceSlot, sourceRoll, targetRoll),
	}, nil
}

// PlanServerToSlot downloads a server world roll into a singleplayer
// slot/roll and repoints the local index.
func PlanServerToSlot(remoteRoot string, sourceRoll int, localRoot string, targetSlot, targetRoll int) (Plan, error) {
	targetWorld, err := saves.SlotWorldHex(targetSlot)
	if err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(sourceRoll); err != nil {
		return Plan{}, err
	}
	if err := saves.ValidateRollIndex(targetRoll); err != nil {
		return Plan{}, err
	}

	root := remote.NormalizePath(remoteRoot)
	return Plan{
		Direction:       DirectionRemoteToLocal,
		SourcePath:      remote.JoinPath(root, saves.RollFileName(saves.ServerWorldHex, sourceRoll)),
		TargetPath:      filepath.Join(localRoot, saves.RollFileName(targetWorld, targetRoll)),
		TargetIndexPath: filepath.Join(localRoot, saves.IndexFileName(targetWorld)),
		TargetLatest:    targetRoll,
		Description:     fmt.Sprintf("server roll %d -> slot %d roll %d", sourceRoll, targetSlot, targetRoll),
	}, nil
}
