package automation

import (
	"context"
	"fmt"

	"github.com/shroudkeep/shroudkeep/internal/backup"
	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
)

// ServerBackupExecutor snapshots the server world and applies retention
type ServerBackupExecutor struct {
	clients ClientFactory
	backups *backup.Service
}

// NewServerBackupExecutor creates the executor. clients may be nil to use
// the default transport factory.
func NewServerBackupExecutor(clients ClientFactory, backups *backup.Service) *ServerBackupExecutor {
	if clients == nil {
		clients = remote.NewClient
	}
	return &ServerBackupExecutor{clients: clients, backups: backups}
}

func (e *ServerBackupExecutor) Execute(ctx context.Context, job *models.AutomationJob, profile *models.Profile, password string) ExecutionResult {
	remoteRoot := jobRemoteRoot(job, profile)

	client, err := e.clients(*profile, password)
	if err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}
	defer client.Close()

	result, err := e.backups.BackupServerWorld(ctx, client, remoteRoot, profile.Name)
	if err != nil {
		return ExecutionResult{Status: models.RunStatusFailed, Message: err.Error()}
	}

	keep := job.KeepLastN
	if keep < 1 {
		keep = 1
	}
	// Retention never fails the run; the snapshot already exists.
	e.backups.PruneServerBackups(profile.Name, keep)

	return ExecutionResult{
		Status:  models.RunStatusSuccess,
		Message: fmt.Sprintf("backed up %d files to %s", result.Files, result.Path),
	}
}
