package secrets

import (
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const serviceName = "shroudkeep"

// CredentialService stores connection passwords outside the database.
// Passwords are keyed by profile id and username so renaming a profile
// never orphans its secret.
type CredentialService interface {
	SetPassword(profileID uint, username, password string) error
	GetPassword(profileID uint, username string) (string, error)
	DeletePassword(profileID uint, username string) error
}

func credentialKey(profileID uint, username string) string {
	return fmt.Sprintf("profile:%d:user:%s", profileID, username)
}

// KeyringService persists passwords in the operating system keyring
type KeyringService struct{}

// NewKeyringService creates a keyring-backed credential service
func NewKeyringService() *KeyringService {
	return &KeyringService{}
}

func (s *KeyringService) SetPassword(profileID uint, username, password string) error {
	if err := keyring.Set(serviceName, credentialKey(profileID, username), password); err != nil {
		return fmt.Errorf("failed to store password: %v", err)
	}
	return nil
}

func (s *KeyringService) GetPassword(profileID uint, username string) (string, error) {
	password, err := keyring.Get(serviceName, credentialKey(profileID, username))
	if err == keyring.ErrNotFound {
		return "", fmt.Errorf("no password stored for profile %d", profileID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return password, nil
}

func (s *KeyringService) DeletePassword(profileID uint, username string) error {
	err := keyring.Delete(serviceName, credentialKey(profileID, username))
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete password: %v", err)
	}
	return nil
}

// MemoryService keeps passwords in process memory, for tests and hosts
// without a keyring daemon.
type MemoryService struct {
	mu        sync.Mutex
	passwords map[string]string
}

// NewMemoryService creates an empty in-memory credential service
func NewMemoryService() *MemoryService {
	return &MemoryService{passwords: make(map[string]string)}
}

func (s *MemoryService) SetPassword(profileID uint, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[credentialKey(profileID, username)] = password
	return nil
}

func (s *MemoryService) GetPassword(profileID uint, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	password, ok := s.passwords[credentialKey(profileID, username)]
	if !ok {
		return "", fmt.Errorf("no password stored for profile %d", profileID)
	}
	return password, nil
}

func (s *MemoryService) DeletePassword(profileID uint, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passwords, credentialKey(profileID, username))
	return nil
}
