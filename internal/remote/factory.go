package remote

import (
	"fmt"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

// NewClient builds the transport client matching the profile protocol
func NewClient(profile models.Profile, password string) (Client, error) {
	switch profile.Protocol {
	case models.ProtocolFTP, models.ProtocolFTPS:
		return NewFTPClient(profile, password), nil
	case models.ProtocolSFTP:
		return NewSFTPClient(profile, password), nil
	default:
		return nil, models.NewValidationError("protocol", fmt.Sprintf("unsupported protocol %q", profile.Protocol))
	}
}
