package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlaffaye/ftp"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

// FTPClient talks plain FTP or explicit FTPS depending on the profile
// protocol. Each operation opens its own control connection so a stalled
// transfer can never wedge later calls.
type FTPClient struct {
	profile  models.Profile
	password string
}

// NewFTPClient creates an FTP/FTPS client for the given profile
func NewFTPClient(profile models.Profile, password string) *FTPClient {
	return &FTPClient{profile: profile, password: password}
}

func (c *FTPClient) dial(ctx context.Context) (*ftp.ServerConn, error) {
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(DefaultTimeout),
	}

	// TLS only when the profile explicitly says ftps
	if c.profile.Protocol == models.ProtocolFTPS {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: c.profile.Host}))
	}

	// The transport is passive-only; the profile flag picks between EPSV
	// and classic PASV for servers that mishandle EPSV.
	if !c.profile.PassiveMode {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}

	conn, err := ftp.Dial(fmt.Sprintf("%s:%d", c.profile.Host, c.profile.Port), opts...)
	if err != nil {
		return nil, fmt.Errorf("ftp connect failed: %v", err)
	}

	if err := conn.Login(c.profile.Username, c.password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login failed: %v", err)
	}

	return conn, nil
}

// TestConnection verifies that the profile's remote path is listable
func (c *FTPClient) TestConnection(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if _, err := conn.List(NormalizePath(c.profile.RemotePath)); err != nil {
		return fmt.Errorf("ftp list failed: %v", err)
	}
	return nil
}

// EnsureDir creates remotePath and any missing parents
func (c *FTPClient) EnsureDir(ctx context.Context, remotePath string) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	return c.makeDirAll(conn, remotePath)
}

func (c *FTPClient) makeDirAll(conn *ftp.ServerConn, remotePath string) error {
	normalized := NormalizePath(remotePath)
	if normalized == "/" {
		return nil
	}

	// MakeDir fails on already-existing segments; only the final segment
	// decides success, checked via a listing.
	current := ""
	for _, part := range strings.Split(strings.TrimPrefix(normalized, "/"), "/") {
		current += "/" + part
		_ = conn.MakeDir(current)
	}

	if _, err := conn.List(normalized); err != nil {
		return fmt.Errorf("ftp mkdir failed for %s: %v", normalized, err)
	}
	return nil
}

// ListDir returns the entry names under remotePath
func (c *FTPClient) ListDir(ctx context.Context, remotePath string) ([]string, error) {
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
func (c *FTPClient) ListDirDetails(ctx context.Context, remotePath string) ([]Entry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	raw, err := conn.List(NormalizePath(remotePath))
	if err != nil {
		return nil, fmt.Errorf("ftp list failed: %v", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		if item.Name == "." || item.Name == ".." {
			continue
		}

		entry := Entry{
			Name:      item.Name,
			IsFile:    item.Type == ftp.EntryTypeFile,
			SizeBytes: int64(item.Size),
		}
		if !item.Time.IsZero() {
			modified := item.Time
			entry.ModifiedAt = &modified
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ReadFileBytes downloads at most maxBytes of remotePath into memory
func (c *FTPClient) ReadFileBytes(ctx context.Context, remotePath string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("invalid max bytes: %d", maxBytes)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	response, err := conn.Retr(NormalizePath(remotePath))
	if err != nil {
		return nil, fmt.Errorf("ftp download failed: %v", err)
	}
	defer response.Close()

	var buf bytes.Buffer
	copied, err := io.Copy(&buf, io.LimitReader(response, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ftp download failed: %v", err)
	}
	if copied > maxBytes {
		return nil, fmt.Errorf("remote file exceeds %d bytes", maxBytes)
	}

	return buf.Bytes(), nil
}

// UploadFile streams a local file to remotePath, creating parent directories
func (c *FTPClient) UploadFile(ctx context.Context, localPath, remotePath string) (int64, error) {
	info, err := os.Stat(localPath)
	if err != nil || !info.Mode().IsRegular() {
		return 0, fmt.Errorf("source file missing: %s", filepath.Base(localPath))
	}

	source, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %v", err)
	}
	defer source.Close()

	conn, err := c.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Quit()

	target := NormalizePath(remotePath)
	if err := c.makeDirAll(conn, ParentPath(target)); err != nil {
		return 0, err
	}

	if err := conn.Stor(target, source); err != nil {
		return 0, fmt.Errorf("ftp upload failed: %v", err)
	}

	return info.Size(), nil
}

// UploadBytes writes data to remotePath, creating parent directories
func (c *FTPClient) UploadBytes(ctx context.Context, remotePath string, data []byte) (int64, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Quit()

	target := NormalizePath(remotePath)
	if err := c.makeDirAll(conn, ParentPath(target)); err != nil {
		return 0, err
	}

	if err := conn.Stor(target, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("ftp upload failed: %v", err)
	}

	return int64(len(data)), nil
}

// DownloadFile streams remotePath into localPath
func (c *FTPClient) DownloadFile(ctx context.Context, remotePath, localPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create local directory: %v", err)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Quit()

	response, err := conn.Retr(NormalizePath(remotePath))
	if err != nil {
		return 0, fmt.Errorf("ftp download failed: %v", err)
	}
	defer response.Close()

	target, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file: %v", err)
	}
	defer target.Close()

	copied, err := io.Copy(target, response)
	if err != nil {
		return 0, fmt.Errorf("ftp download failed: %v", err)
	}

	return copied, nil
}

// FileExists checks the parent listing for a regular file named remotePath
func (c *FTPClient) FileExists(ctx context.Context, remotePath string) (bool, error) {
	normalized := NormalizePath(remotePath)
	entries, err := c.ListDirDetails(ctx, ParentPath(normalized))
	if err != nil {
		return false, err
	}

	name := BaseName(normalized)
	for _, entry := range entries {
		if entry.Name == name {
			return entry.IsFile, nil
		}
	}
	return false, nil
}

// Close is a no-op; connections are per-operation
func (c *FTPClient) Close() error {
	return nil
}
