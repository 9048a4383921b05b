package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// SFTPClient handles SFTP operations for a connection profile. The SSH
// connection is kept open between calls and recycled after sitting idle.
type SFTPClient struct {
	profile     models.Profile
	password    string
	sshClient   *ssh.Client
	sftpClient  *sftp.Client
	connected   bool
	lastUsed    time.Time
	idleTimeout time.Duration
}

// NewSFTPClient creates a new SFTP client for the given profile
func NewSFTPClient(profile models.Profile, password string) *SFTPClient {
	return &SFTPClient{
		profile:     profile,
		password:    password,
		idleTimeout: 5 * time.Minute,
	}
}

// ensureConnected checks if connection is alive and reconnects if needed
func (c *SFTPClient) ensureConnected(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("operation cancelled: %v", err)
	}

	if c.connected && time.Since(c.lastUsed) > c.idleTimeout {
		logger.Info("SFTP: Connection idle too long, reconnecting", map[string]interface{}{
			"idle_duration": time.Since(c.lastUsed).Round(time.Second),
		})
		c.Close()
	}

	if !c.connected {
		return c.connect()
	}

	c.lastUsed = time.Now()
	return nil
}

func (c *SFTPClient) connect() error {
	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return err
	}

	sshConfig := &ssh.ClientConfig{
		User: c.profile.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.password),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         DefaultTimeout,
	}

	address := fmt.Sprintf("%s:%d", c.profile.Host, c.profile.Port)
	logger.Info("SFTP: Connecting", map[string]interface{}{
		"host": c.profile.Host,
		"port": c.profile.Port,
		"user": c.profile.Username,
	})

	sshClient, err := ssh.Dial("tcp", address, sshConfig)
	if err != nil {
		return fmt.Errorf("sftp connect failed: %v", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return fmt.Errorf("sftp session failed: %v", err)
	}

	c.sshClient = sshClient
	c.sftpClient = sftpClient
	c.connected = true
	c.lastUsed = time.Now()

	return nil
}

// hostKeyCallback returns the verification strategy for the profile.
// Skipping verification is an explicit profile setting and is logged so it
// stays auditable.
func (c *SFTPClient) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if !c.profile.VerifyHostKey {
		logger.Warn("SFTP: Host key verification disabled by profile", map[string]interface{}{
			"profile": c.profile.Name,
			"host":    c.profile.Host,
		})
		return ssh.InsecureIgnoreHostKey(), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot locate known_hosts: %v", err)
	}

	callback, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		return nil, fmt.Errorf("cannot load known_hosts: %v", err)
	}
	return callback, nil
}

// Close closes the SFTP and SSH connections
func (c *SFTPClient) Close() error {
	if !c.connected {
		return nil
	}

	if c.sftpClient != nil {
		c.sftpClient.Close()
	}
	if c.sshClient != nil {
		c.sshClient.Close()
	}

	c.connected = false
	return nil
}

// TestConnection verifies that the profile's remote path is listable
func (c *SFTPClient) TestConnection(ctx context.Context) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	if _, err := c.sftpClient.ReadDir(NormalizePath(c.profile.RemotePath)); err != nil {
		return fmt.Errorf("sftp list failed: %v", err)
	}
	return nil
}

// EnsureDir creates remotePath and any missing parents
func (c *SFTPClient) EnsureDir(ctx context.Context, remotePath string) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	if err := c.sftpClient.MkdirAll(NormalizePath(remotePath)); err != nil {
		return fmt.Errorf("sftp mkdir failed: %v", err)
	}
	return nil
}

// ListDir returns the entry names under remotePath
func (c *SFTPClient) ListDir(ctx context.Context, remotePath string) ([]string, error) {
	entries, err := c.ListDirDetails(ctx, remotePath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

// ListDirDetails returns name/type/size/mtime for every entry under remotePath
func (c *SFTPClient) ListDirDetails(ctx context.Context, remotePath string) ([]Entry, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	infos, err := c.sftpClient.ReadDir(NormalizePath(remotePath))
	if err != nil {
		return nil, fmt.Errorf("sftp list failed: %v", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entry := Entry{
			Name:      info.Name(),
			IsFile:    info.Mode().IsRegular(),
			SizeBytes: info.Size(),
		}
		if !info.ModTime().IsZero() {
			modified := info.ModTime()
			entry.ModifiedAt = &modified
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ReadFileBytes downloads at most maxBytes of remotePath into memory
func (c *SFTPClient) ReadFileBytes(ctx context.Context, remotePath string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("invalid max bytes: %d", maxBytes)
	}

	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	remoteFile, err := c.sftpClient.Open(NormalizePath(remotePath))
	if err != nil {
		return nil, fmt.Errorf("sftp open failed: %v", err)
	}
	defer remoteFile.Close()

	var buf bytes.Buffer
	copied, err := io.Copy(&buf, io.LimitReader(remoteFile, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("sftp read failed: %v", err)
	}
	if copied > maxBytes {
		return nil, fmt.Errorf("remote file exceeds %d bytes", maxBytes)
	}

	return buf.Bytes(), nil
}

// UploadFile streams a local file to remotePath, creating parent directories
func (c *SFTPClient) UploadFile(ctx context.Context, localPath, remotePath string) (int64, error) {
	info, err := os.Stat(localPath)
	if err != nil || !info.Mode().IsRegular() {
		return 0, fmt.Errorf("source file missing: %s", filepath.Base(localPath))
	}

	source, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %v", err)
	}
	defer source.Close()

	if err := c.ensureConnected(ctx); err != nil {
		return 0, err
	}

	target := NormalizePath(remotePath)
	if err := c.sftpClient.MkdirAll(ParentPath(target)); err != nil {
		return 0, fmt.Errorf("sftp mkdir failed: %v", err)
	}

	remoteFile, err := c.sftpClient.Create(target)
	if err != nil {
		return 0, fmt.Errorf("sftp create failed: %v", err)
	}
	defer remoteFile.Close()

	copied, err := io.Copy(remoteFile, source)
	if err != nil {
		return 0, fmt.Errorf("sftp upload failed: %v", err)
	}

	return copied, nil
}

// UploadBytes writes data to remotePath, creating parent directories
func (c *SFTPClient) UploadBytes(ctx context.Context, remotePath string, data []byte) (int64, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return 0, err
	}

	target := NormalizePath(remotePath)
	if err := c.sftpClient.MkdirAll(ParentPath(target)); err != nil {
		return 0, fmt.Errorf("sftp mkdir failed: %v", err)
	}

	remoteFile, err := c.sftpClient.Create(target)
	if err != nil {
		return 0, fmt.Errorf("sftp create failed: %v", err)
	}
	defer remoteFile.Close()

	copied, err := io.Copy(remoteFile, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("sftp upload failed: %v", err)
	}

	return copied, nil
}

// DownloadFile streams remotePath into localPath
func (c *SFTPClient) DownloadFile(ctx context.Context, remotePath, localPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create local directory: %v", err)
	}

	if err := c.ensureConnected(ctx); err != nil {
		return 0, err
	}

	remoteFile, err := c.sftpClient.Open(NormalizePath(remotePath))
	if err != nil {
		return 0, fmt.Errorf("sftp open failed: %v", err)
	}
	defer remoteFile.Close()

	target, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file: %v", err)
	}
	defer target.Close()

	copied, err := io.Copy(target, remoteFile)
	if err != nil {
		return 0, fmt.Errorf("sftp download failed: %v", err)
	}

	return copied, nil
}

// FileExists stats remotePath and reports whether it is a regular file
func (c *SFTPClient) FileExists(ctx context.Context, remotePath string) (bool, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return false, err
	}

	info, err := c.sftpClient.Stat(NormalizePath(remotePath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("sftp stat failed: %v", err)
	}

	return info.Mode().IsRegular(), nil
}
