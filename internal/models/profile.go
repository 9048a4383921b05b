package models

import (
	"strings"
	"time"
)

// Protocol identifies the remote transport of a connection profile
type Protocol string

const (
	ProtocolFTP  Protocol = "ftp"
	ProtocolFTPS Protocol = "ftps"
	ProtocolSFTP Protocol = "sftp"
)

// ParseProtocol normalizes a protocol string, returning ok=false for
// anything that is not ftp, ftps or sftp.
func ParseProtocol(value string) (Protocol, bool) {
	switch Protocol(strings.ToLower(strings.TrimSpace(value))) {
	case ProtocolFTP:
		return ProtocolFTP, true
	case ProtocolFTPS:
		return ProtocolFTPS, true
	case ProtocolSFTP:
		return ProtocolSFTP, true
	}
	return "", false
}

// Profile is a saved remote-server connection definition. The password is
// never stored here; it lives in the secret store keyed by (id, username).
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name       string   `gorm:"uniqueIndex;size:255;not null"`
	Protocol   Protocol `gorm:"size:10;not null"`
	Host       string   `gorm:"size:255;not null"`
	Port       int      `gorm:"not null"`
	Username   string   `gorm:"size:255;not null"`
	RemotePath string   `gorm:"size:512;not null"`

	// FTP only
	PassiveMode bool `gorm:"not null;default:true"`

	// SFTP only. Disabling host-key verification is an explicit,
	// auditable choice, never a silent default.
	VerifyHostKey bool `gorm:"not null;default:true"`
}

// TableName specifies the table name
func (Profile) TableName() string {
	return "profiles"
}
