package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shroudkeep/shroudkeep/internal/events"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

const (
	serverMarkerPrefix = "__SRV__"
	serverMarkerSuffix = "__ServerWorld"
	timestampLayout    = "20060102-150405"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Options controls where snapshots land and whether they get compressed
type Options struct {
	BackupRoot       string
	ZipEnabled       bool
	KeepUncompressed bool
}

// Result describes one finished snapshot
type Result struct {
	Path      string
	Files     int
	Bytes     int64
	Zipped    bool
	CreatedAt time.Time
}

// Service creates timestamped snapshots of save data and prunes old ones
type Service struct {
	opts Options
	bus  *events.Bus
}

// NewService creates a new backup service. bus may be nil.
func NewService(opts Options, bus *events.Bus) *Service {
	return &Service{opts: opts, bus: bus}
}

// SanitizeName collapses anything outside [a-zA-Z0-9_-] so profile names
// are safe as path components.
func SanitizeName(name string) string {
	sanitized := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}

// ServerMarker is the retention key embedded in every server backup name
// for the given profile.
func ServerMarker(profileName string) string {
	return serverMarkerPrefix + SanitizeName(profileName) + serverMarkerSuffix
}

// BackupSlot snapshots every existing roll of a singleplayer slot plus its
// index side-car.
func (s *Service) BackupSlot(localRoot string, slot int) (*Result, error) {
	worldHex, err := saves.SlotWorldHex(slot)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("slot%02d_%s_%s", slot, worldHex, time.Now().Format(timestampLayout))
	targetDir := filepath.Join(s.opts.BackupRoot, "singleplayer", name)

	result, err := s.snapshotLocal(localRoot, worldHex, targetDir)
	if err != nil {
		s.publishFailure(err)
		return nil, err
	}
	return s.finish(result, targetDir)
}

// BackupServerWorld downloads every existing server roll plus the index
// into a marker-named snapshot under <backupRoot>/server.
func (s *Service) BackupServerWorld(ctx context.Context, client remote.Client, remoteRoot, profileName string) (*Result, error) {
	name := ServerMarker(profileName) + "_" + time.Now().Format(timestampLayout)
	targetDir := filepath.Join(s.opts.BackupRoot, "server", name)

	result, err := s.snapshotRemote(ctx, client, remoteRoot, targetDir)
	if err != nil {
		s.publishFailure(err)
		return nil, err
	}
	return s.finish(result, targetDir)
}

func (s *Service) snapshotLocal(localRoot, worldHex, targetDir string) (*Result, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	result := &Result{Path: targetDir, CreatedAt: time.Now()}

	names := make([]string, 0, saves.MaxRolls+1)
	for roll := 0; roll < saves.MaxRolls; roll++ {
		names = append(names, saves.RollFileName(worldHex, roll))
	}
	names = append(names, saves.IndexFileName(worldHex))

	for _, name := range names {
		sourcePath := filepath.Join(localRoot, name)
		info, err := os.Stat(sourcePath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		copied, err := copyFile(sourcePath, filepath.Join(targetDir, name))
		if err != nil {
			os.RemoveAll(targetDir)
			return nil, err
		}
		result.Files++
		result.Bytes += copied
	}

	if result.Files == 0 {
		os.RemoveAll(targetDir)
		return nil, fmt.Errorf("nothing to back up: no save files found")
	}
	return result, nil
}

func (s *Service) snapshotRemote(ctx context.Context, client remote.Client, remoteRoot, targetDir string) (*Result, error) {
	root := remote.NormalizePath(remoteRoot)

	entries, err := client.ListDirDetails(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list server save directory: %v", err)
	}

	wanted := make(map[string]bool, saves.MaxRolls+1)
	for roll := 0; roll < saves.MaxRolls; roll++ {
		wanted[saves.RollFileName(saves.ServerWorldHex, roll)] = true
	}
	wanted[saves.IndexFileName(saves.ServerWorldHex)] = true

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	result := &Result{Path: targetDir, CreatedAt: time.Now()}
	for _, entry := range entries {
		if !entry.IsFile || !wanted[entry.Name] {
			continue
		}

		copied, err := client.DownloadFile(ctx, remote.JoinPath(root, entry.Name), filepath.Join(targetDir, entry.Name))
		if err != nil {
			os.RemoveAll(targetDir)
			return nil, fmt.Errorf("download failed for %s: %v", entry.Name, err)
		}
		result.Files++
		result.Bytes += copied
	}

	if result.Files == 0 {
		os.RemoveAll(targetDir)
		return nil, fmt.Errorf("nothing to back up: server save directory is empty")
	}
	return result, nil
}

func (s *Service) finish(result *Result, targetDir string) (*Result, error) {
	if s.opts.ZipEnabled {
		zipPath := targetDir + ".zip"
		if err := zipDirectory(targetDir, zipPath); err != nil {
			s.publishFailure(err)
			return nil, err
		}
		result.Zipped = true
		result.Path = zipPath

		if !s.opts.KeepUncompressed {
			if err := os.RemoveAll(targetDir); err != nil {
				logger.Warn("BACKUP: Failed to remove uncompressed snapshot", map[string]interface{}{
					"path":  targetDir,
					"error": err.Error(),
				})
			}
		}
	}

	logger.Info("BACKUP: Snapshot created", map[string]interface{}{
		"path":  result.Path,
		"files": result.Files,
		"bytes": result.Bytes,
	})
	if s.bus != nil {
		s.bus.Publish(events.BackupCreated, map[string]interface{}{
			"path":  result.Path,
			"files": result.Files,
			"bytes": result.Bytes,
		})
	}
	return result, nil
}

func (s *Service) publishFailure(err error) {
	if s.bus != nil {
		s.bus.Publish(events.BackupFailed, map[string]interface{}{"error": err.Error()})
	}
}

// PruneServerBackups keeps the newest keepLastN snapshots carrying the
// profile's marker and removes the rest. Snapshot names embed the creation
// timestamp, so a descending name sort is a descending age sort. Deletion
// failures are logged and skipped so one stuck file cannot block pruning.
func (s *Service) PruneServerBackups(profileName string, keepLastN int) (int, error) {
	if keepLastN < 1 {
		return 0, nil
	}

	serverDir := filepath.Join(s.opts.BackupRoot, "server")
	entries, err := os.ReadDir(serverDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list backup directory: %v", err)
	}

	marker := ServerMarker(profileName)
	var matching []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), marker) {
			matching = append(matching, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matching)))
	if len(matching) <= keepLastN {
		return 0, nil
	}

	removed := 0
	for _, name := range matching[keepLastN:] {
		path := filepath.Join(serverDir, name)
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("BACKUP: Failed to prune snapshot", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("BACKUP: Pruned old snapshots", map[string]interface{}{
			"profile": profileName,
			"removed": removed,
			"kept":    keepLastN,
		})
	}
	return removed, nil
}

func copyFile(sourcePath, targetPath string) (int64, error) {
	source, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %v", err)
	}
	defer source.Close()

	target, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %v", err)
	}
	defer target.Close()

	copied, err := io.Copy(target, source)
	if err != nil {
		return 0, fmt.Errorf("copy failed: %v", err)
	}
	return copied, nil
}

func zipDirectory(sourceDir, zipPath string) error {
	archive, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %v", err)
	}
	defer archive.Close()

	writer := zip.NewWriter(archive)

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to list snapshot directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		source, err := os.Open(filepath.Join(sourceDir, entry.Name()))
		if err != nil {
			writer.Close()
			return fmt.Errorf("failed to open snapshot file: %v", err)
		}

		target, err := writer.Create(entry.Name())
		if err != nil {
			source.Close()
			writer.Close()
			return fmt.Errorf("failed to add archive entry: %v", err)
		}

		if _, err := io.Copy(target, source); err != nil {
			source.Close()
			writer.Close()
			return fmt.Errorf("failed to compress %s: %v", entry.Name(), err)
		}
		source.Close()
	}

	return writer.Close()
}
