package server

import (
	"context"
	"fmt"
	"time"

	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/saves"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// IndexMaxBytes caps the remote index download. The side-car is a few dozen
// bytes; anything larger is treated as corrupt rather than buffered.
const IndexMaxBytes = 64 * 1024

// ServerRoll describes one roll of the dedicated server world
type ServerRoll struct {
	RollIndex  int
	RemotePath string
	Exists     bool
	SizeBytes  int64
	ModifiedAt *time.Time
}

// ServerScanResult is the observed state of the server world directory
type ServerScanResult struct {
	RemoteRoot   string
	WorldIDHex   string
	Rolls        []ServerRoll
	IndexPath    string
	Latest       *int
	LastModified *time.Time
	Warnings     []string
}

// WorldService inspects and updates the dedicated server's save directory
// over an established transport client.
type WorldService struct {
	client remote.Client
}

// NewWorldService creates a new server world service
func NewWorldService(client remote.Client) *WorldService {
	return &WorldService{client: client}
}

// Scan lists remoteRoot once and derives the state of all ten server rolls
// plus the index side-car from that single listing.
func (s *WorldService) Scan(ctx context.Context, remoteRoot string) (*ServerScanResult, error) {
	root := remote.NormalizePath(remoteRoot)
	result := &ServerScanResult{
		RemoteRoot: root,
		WorldIDHex: saves.ServerWorldHex,
		IndexPath:  remote.JoinPath(root, saves.IndexFileName(saves.ServerWorldHex)),
	}

	entries, err := s.client.ListDirDetails(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list server save directory: %v", err)
	}

	byName := make(map[string]remote.Entry, len(entries))
	for _, entry := range entries {
		if entry.IsFile {
			byName[entry.Name] = entry
		}
	}

	for roll := 0; roll < saves.MaxRolls; roll++ {
		name := saves.RollFileName(saves.ServerWorldHex, roll)
		serverRoll := ServerRoll{
			RollIndex:  roll,
			RemotePath: remote.JoinPath(root, name),
		}
		if entry, ok := byName[name]; ok {
			serverRoll.Exists = true
			serverRoll.SizeBytes = entry.SizeBytes
			serverRoll.ModifiedAt = entry.ModifiedAt
			if entry.ModifiedAt != nil {
				if result.LastModified == nil || entry.ModifiedAt.After(*result.LastModified) {
					result.LastModified = entry.ModifiedAt
				}
			}
		}
		result.Rolls = append(result.Rolls, serverRoll)
	}

	indexName := saves.IndexFileName(saves.ServerWorldHex)
	if _, ok := byName[indexName]; !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("server index file missing: %s", indexName))
		return result, nil
	}

	data, err := s.client.ReadFileBytes(ctx, result.IndexPath, IndexMaxBytes)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to read server index: %v", err))
		return result, nil
	}

	latest := saves.ParseLatestBytes(data)
	if latest == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("server index file is invalid: %s", indexName))
		return result, nil
	}

	result.Latest = latest
	return result, nil
}

// WriteLatest uploads a fresh index side-car pointing the server world at
// the given roll. Callers must transfer the payload first; the index is the
// commit record and goes last.
func (s *WorldService) WriteLatest(ctx context.Context, remoteRoot string, latest int) error {
	if err := saves.ValidateRollIndex(latest); err != nil {
		return err
	}

	indexPath := remote.JoinPath(remote.NormalizePath(remoteRoot), saves.IndexFileName(saves.ServerWorldHex))
	if _, err := s.client.UploadBytes(ctx, indexPath, saves.EncodeLatest(latest)); err != nil {
		return fmt.Errorf("failed to write server index: %v", err)
	}

	logger.Info("SERVER: Index updated", map[string]interface{}{
		"index_path": indexPath,
		"latest":     latest,
	})
	return nil
}
