package remote

import (
	"context"
	"strings"
	"time"
)

// DefaultTimeout bounds every network round-trip; no remote operation may
// block the caller indefinitely.
const DefaultTimeout = 12 * time.Second

// Entry describes one item of a remote directory listing
type Entry struct {
	Name       string
	IsFile     bool
	SizeBytes  int64
	ModifiedAt *time.Time
}

// Client is the uniform capability contract over FTP/FTPS and SFTP.
// Implementations convert every transport failure into a plain error value;
// no transport-specific error types cross this boundary. All paths are
// normalized to POSIX-absolute form.
type Client interface {
	TestConnection(ctx context.Context) error
	EnsureDir(ctx context.Context, remotePath string) error
	ListDir(ctx context.Context, remotePath string) ([]string, error)
	ListDirDetails(ctx context.Context, remotePath string) ([]Entry, error)

	// ReadFileBytes fails closed when the content would exceed maxBytes;
	// it never buffers unbounded remote data.
	ReadFileBytes(ctx context.Context, remotePath string, maxBytes int64) ([]byte, error)

	UploadFile(ctx context.Context, localPath, remotePath string) (int64, error)
	UploadBytes(ctx context.Context, remotePath string, data []byte) (int64, error)
	DownloadFile(ctx context.Context, remotePath, localPath string) (int64, error)
	FileExists(ctx context.Context, remotePath string) (bool, error)

	Close() error
}

// NormalizePath collapses a remote path to POSIX-absolute form:
// "a//b/" -> "/a/b", "" -> "/".
func NormalizePath(remotePath string) string {
	var parts []string
	for _, part := range strings.Split(strings.TrimSpace(remotePath), "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// JoinPath joins a normalized remote root and a file name
func JoinPath(root, name string) string {
	normalized := NormalizePath(root)
	if normalized == "/" {
		return "/" + name
	}
	return normalized + "/" + name
}

// ParentPath returns the parent directory of a normalized remote path
func ParentPath(remotePath string) string {
	normalized := NormalizePath(remotePath)
	idx := strings.LastIndex(normalized, "/")
	if idx <= 0 {
		return "/"
	}
	return normalized[:idx]
}

// BaseName returns the final element of a normalized remote path
func BaseName(remotePath string) string {
	normalized := NormalizePath(remotePath)
	idx := strings.LastIndex(normalized, "/")
	return normalized[idx+1:]
}
