package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// ScheduledUploadExecutor pushes a roll from a local save directory to the
// server world, then commits the remote index.
type ScheduledUploadExecutor struct {
	clients ClientFactory
}

// NewScheduledUploadExecutor creates the executor. clients may be nil to
// use the default transport factory.
func NewScheduledUploadExecutor(clients ClientFactory) *ScheduledUploadExecutor {
	if clients == nil {
		clients = remote.NewClient
	}
	return &ScheduledUploadExecutor{clients: clients}
}

// sourceWorld is one roll-file family discovered in the source directory
type sourceWorld struct {
	worldHex    string
	filesByRoll map[int]string
	indexPath   string
}

func (e *ScheduledUploadExecutor) Execute(ctx context.Context, job *models.AutomationJob, profile *models.Profile, password string) ExecutionResult {
	sourceDir := strings.TrimSpace(job.SourceLocalDir)
	if sourceDir == "" {
		return ExecutionResult{Status: models.RunStatusFailed, Message: "no source folder configured"}
	}
	info, err := os.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		return ExecutionResult{Status: models.RunStatusFailed, Message: fmt.Sprintf("source folder not found: %s", sourceDir)}
	}

	source := detectSourceFiles(sourceDir)
	if source == nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: "no save files found in source folder"}
	}

	roll, ok := selectRoll(source, job)
	if !ok {
		return ExecutionResult{Status: models.RunStatusFailed, Message: "no usable roll in source folder"}
	}

	remoteRoot := remote.NormalizePath(jobRemoteRoot(job, profile))
	rollPath := remote.JoinPath(remoteRoot, saves.RollFileName(saves.ServerWorldHex, roll))
	indexPath := remote.JoinPath(remoteRoot, saves.IndexFileName(saves.ServerWorldHex))

	client, err := e.clients(*profile, password)
	if err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}
	defer client.Close()

	if err := client.EnsureDir(ctx, remoteRoot); err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}

	if _, err := client.UploadFile(ctx, source.filesByRoll[roll], rollPath); err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}
	if _, err := client.UploadBytes(ctx, indexPath, saves.EncodeLatest(roll)); err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}

	logger.Info("UPLOAD: Roll uploaded", map[string]interface{}{
		"source_world": source.worldHex,
		"roll":         roll,
		"remote_root":  remoteRoot,
	})
	return ExecutionResult{Status: models.RunStatusSuccess, Message: fmt.Sprintf("uploaded roll %d to %s", roll, remoteRoot)}
}

// jobRemoteRoot prefers the job's own remote path over the profile default
func jobRemoteRoot(job *models.AutomationJob, profile *models.Profile) string {
	if strings.TrimSpace(job.RemotePath) != "" {
		return job.RemotePath
	}
	return profile.RemotePath
}

// detectSourceFiles groups the directory's roll and index files by world.
// A single world is used as-is; with several worlds present, only the
// server world id is accepted.
func detectSourceFiles(sourceDir string) *sourceWorld {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil
	}

	worlds := make(map[string]*sourceWorld)
	get := func(worldHex string) *sourceWorld {
		if world, ok := worlds[worldHex]; ok {
			return world
		}
		world := &sourceWorld{worldHex: worldHex, filesByRoll: make(map[int]string)}
		worlds[worldHex] = world
		return world
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(sourceDir, entry.Name())

		if worldHex, ok := saves.MatchIndexFile(entry.Name()); ok {
			get(worldHex).indexPath = path
			continue
		}
		if worldHex, roll, ok := saves.MatchRollFile(entry.Name()); ok {
			get(worldHex).filesByRoll[roll] = path
		}
	}

	if len(worlds) == 0 {
		return nil
	}
	if len(worlds) == 1 {
		for _, world := range worlds {
			return world
		}
	}
	return worlds[saves.ServerWorldHex]
}

// selectRoll picks which roll to upload. Fixed mode demands the configured
// roll exists; latest mode follows the source index and falls back to the
// highest-numbered roll present.
func selectRoll(source *sourceWorld, job *models.AutomationJob) (int, bool) {
	if len(source.filesByRoll) == 0 {
		return 0, false
	}

	available := make([]int, 0, len(source.filesByRoll))
	for roll := range source.filesByRoll {
		available = append(available, roll)
	}
	sort.Ints(available)

	if job.UploadRollMode == models.RollModeFixed {
		if job.UploadFixedRoll == nil {
			return 0, false
		}
		if _, ok := source.filesByRoll[*job.UploadFixedRoll]; !ok {
			return 0, false
		}
		return *job.UploadFixedRoll, true
	}

	if source.indexPath != "" {
		if latest := saves.NewIndexService().ReadLatest(source.indexPath); latest != nil {
			if _, ok := source.filesByRoll[*latest]; ok {
				return *latest, true
			}
		}
	}
	return available[len(available)-1], true
}
