package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// ProgressFunc receives coarse checkpoints during a transfer. percent is
// 0-100; stage is a short human-readable label.
type ProgressFunc func(percent int, stage string)

// Result summarizes a finished transfer
type Result struct {
	Success     bool
	Message     string
	BytesCopied int64
	FilesCopied int
}

// Executor runs transfer plans. The payload always moves before the index
// side-car is touched, so an interrupted transfer leaves the target slot
// pointing at its previous roll.
type Executor struct {
	index *saves.IndexService
}

// NewExecutor creates a new transfer executor
func NewExecutor(index *saves.IndexService) *Executor {
	if index == nil {
		index = saves.NewIndexService()
	}
	return &Executor{index: index}
}

// Execute runs the plan. client may be nil for local-to-local plans.
func (e *Executor) Execute(ctx context.Context, client remote.Client, plan Plan, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	logger.Info("TRANSFER: Starting", map[string]interface{}{
		"direction":   string(plan.Direction),
		"description": plan.Description,
	})

	progress(5, "preparing")
	if plan.Direction != DirectionRemoteToLocal {
		info, err := os.Stat(plan.SourcePath)
		if err != nil || !info.Mode().IsRegular() {
			return nil, fmt.Errorf("source save file missing: %s", filepath.Base(plan.SourcePath))
		}
	}
	if plan.Direction != DirectionLocalToLocal && client == nil {
		return nil, fmt.Errorf("remote transfer requires a connection")
	}

	progress(40, "copying save data")
	copied, err := e.copyPayload(ctx, client, plan)
	if err != nil {
		return nil, err
	}

	progress(85, "updating index")
	if err := e.writeIndex(ctx, client, plan); err != nil {
		return nil, err
	}

	progress(100, "done")
	result := &Result{
		Success:     true,
		Message:     fmt.Sprintf("Transferred %s", plan.Description),
		BytesCopied: copied,
		FilesCopied: 1,
	}

	logger.Info("TRANSFER: Finished", map[string]interface{}{
		"description":  plan.Description,
		"bytes_copied": copied,
	})
	return result, nil
}

func (e *Executor) copyPayload(ctx context.Context, client remote.Client, plan Plan) (int64, error) {
	switch plan.Direction {
	case DirectionLocalToLocal:
		return copyFileAtomic(plan.SourcePath, plan.TargetPath)
	case DirectionLocalToRemote:
		copied, err := client.UploadFile(ctx, plan.SourcePath, plan.TargetPath)
		if err != nil {
			return 0, fmt.Errorf("upload failed: %v", err)
		}
		return copied, nil
	case DirectionRemoteToLocal:
		return downloadAtomic(ctx, client, plan.SourcePath, plan.TargetPath)
	default:
		return 0, fmt.Errorf("unknown transfer direction: %s", plan.Direction)
	}
}

func (e *Executor) writeIndex(ctx context.Context, client remote.Client, plan Plan) error {
	if plan.Direction == DirectionLocalToRemote {
		if _, err := client.UploadBytes(ctx, plan.TargetIndexPath, saves.EncodeLatest(plan.TargetLatest)); err != nil {
			return fmt.Errorf("failed to update remote index: %v", err)
		}
		return nil
	}
	return e.index.WriteLatest(plan.TargetIndexPath, plan.TargetLatest)
}

// copyFileAtomic copies via a temporary file in the target directory and
// renames into place, so readers never observe a half-written roll.
func copyFileAtomic(sourcePath, targetPath string) (int64, error) {
	source, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %v", err)
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create target directory: %v", err)
	}

	tempPath := filepath.Join(filepath.Dir(targetPath), "."+uuid.NewString()+".tmp")
	temp, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %v", err)
	}

	copied, err := io.Copy(temp, source)
	if err != nil {
		temp.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("copy failed: %v", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("copy failed: %v", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to move file into place: %v", err)
	}
	return copied, nil
}

// downloadAtomic stages the download next to the target and renames on
// success.
func downloadAtomic(ctx context.Context, client remote.Client, remotePath, targetPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create target directory: %v", err)
	}

	tempPath := filepath.Join(filepath.Dir(targetPath), "."+uuid.NewString()+".tmp")
	copied, err := client.DownloadFile(ctx, remotePath, tempPath)
	if err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("download failed: %v", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to move file into place: %v", err)
	}
	return copied, nil
}
