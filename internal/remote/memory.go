package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryClient is an in-memory Client used by tests and dry runs. It keeps
// files in a flat path-keyed map and tracks directories explicitly so
// EnsureDir semantics can be asserted.
type MemoryClient struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	mtime map[string]time.Time

	// FailOn marks operation names ("upload", "download", "list", "read",
	// "mkdir", "exists", "test") that should return an error.
	FailOn map[string]bool

	Uploads   int
	Downloads int
}

// NewMemoryClient creates an empty in-memory client
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		files:  make(map[string][]byte),
		dirs:   map[string]bool{"/": true},
		mtime:  make(map[string]time.Time),
		FailOn: make(map[string]bool),
	}
}

// Seed places a file at remotePath without going through UploadBytes
func (c *MemoryClient) Seed(remotePath string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(NormalizePath(remotePath), data)
}

// FileContent returns the stored bytes for remotePath, nil when absent
func (c *MemoryClient) FileContent(remotePath string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files[NormalizePath(remotePath)]
}

func (c *MemoryClient) put(normalized string, data []byte) {
	c.files[normalized] = append([]byte(nil), data...)
	c.mtime[normalized] = time.Now()
	for dir := ParentPath(normalized); ; dir = ParentPath(dir) {
		c.dirs[dir] = true
		if dir == "/" {
			break
		}
	}
}

func (c *MemoryClient) fail(op string) error {
	if c.FailOn[op] {
		return fmt.Errorf("simulated %s failure", op)
	}
	return nil
}

func (c *MemoryClient) TestConnection(ctx context.Context) error {
	return c.fail("test")
}

func (c *MemoryClient) EnsureDir(ctx context.Context, remotePath string) error {
	if err := c.fail("mkdir"); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	normalized := NormalizePath(remotePath)
	for dir := normalized; ; dir = ParentPath(dir) {
		c.dirs[dir] = true
		if dir == "/" {
			break
		}
	}
	return nil
}

func (c *MemoryClient) ListDir(ctx context.Context, remotePath string) ([]string, error) {
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

func (c *MemoryClient) ListDirDetails(ctx context.Context, remotePath string) ([]Entry, error) {
	if err := c.fail("list"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	normalized := NormalizePath(remotePath)
	if !c.dirs[normalized] {
		return nil, fmt.Errorf("no such directory: %s", normalized)
	}

	prefix := normalized
	if prefix != "/" {
		prefix += "/"
	}

	seen := make(map[string]Entry)
	for path, data := range c.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			// Deeper file; surface the intermediate directory once.
			name := rest[:idx]
			seen[name] = Entry{Name: name, IsFile: false}
			continue
		}
		modified := c.mtime[path]
		seen[rest] = Entry{Name: rest, IsFile: true, SizeBytes: int64(len(data)), ModifiedAt: &modified}
	}
	for dir := range c.dirs {
		if !strings.HasPrefix(dir, prefix) || dir == normalized {
			continue
		}
		rest := strings.TrimPrefix(dir, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			rest = rest[:idx]
		}
		if _, ok := seen[rest]; !ok {
			seen[rest] = Entry{Name: rest, IsFile: false}
		}
	}

	entries := make([]Entry, 0, len(seen))
	for _, entry := range seen {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *MemoryClient) ReadFileBytes(ctx context.Context, remotePath string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("invalid max bytes: %d", maxBytes)
	}
	if err := c.fail("read"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.files[NormalizePath(remotePath)]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", NormalizePath(remotePath))
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("remote file exceeds %d bytes", maxBytes)
	}
	return append([]byte(nil), data...), nil
}

func (c *MemoryClient) UploadFile(ctx context.Context, localPath, remotePath string) (int64, error) {
	if err := c.fail("upload"); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("source file missing: %s", filepath.Base(localPath))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(NormalizePath(remotePath), data)
	c.Uploads++
	return int64(len(data)), nil
}

func (c *MemoryClient) UploadBytes(ctx context.Context, remotePath string, data []byte) (int64, error) {
	if err := c.fail("upload"); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(NormalizePath(remotePath), data)
	c.Uploads++
	return int64(len(data)), nil
}

func (c *MemoryClient) DownloadFile(ctx context.Context, remotePath, localPath string) (int64, error) {
	if err := c.fail("download"); err != nil {
		return 0, err
	}

	c.mu.Lock()
	data, ok := c.files[NormalizePath(remotePath)]
	c.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("no such file: %s", NormalizePath(remotePath))
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create local directory: %v", err)
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write local file: %v", err)
	}

	c.mu.Lock()
	c.Downloads++
	c.mu.Unlock()
	return int64(len(data)), nil
}

func (c *MemoryClient) FileExists(ctx context.Context, remotePath string) (bool, error) {
	if err := c.fail("exists"); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.files[NormalizePath(remotePath)]
	return ok, nil
}

func (c *MemoryClient) Close() error {
	return nil
}
