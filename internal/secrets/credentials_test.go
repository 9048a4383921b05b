package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryServiceRoundTrip(t *testing.T) {
	service := NewMemoryService()

	require.NoError(t, service.SetPassword(1, "admin", "hunter2"))

	password, err := service.GetPassword(1, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	_, err = service.GetPassword(1, "other")
	assert.Error(t, err)
	_, err = service.GetPassword(2, "admin")
	assert.Error(t, err)
}

func TestMemoryServiceDelete(t *testing.T) {
	service := NewMemoryService()

	require.NoError(t, service.SetPassword(7, "user", "pw"))
	require.NoError(t, service.DeletePassword(7, "user"))
	require.NoError(t, service.DeletePassword(7, "user"))

	_, err := service.GetPassword(7, "user")
	assert.Error(t, err)
}

func TestCredentialKeyShape(t *testing.T) {
	assert.Equal(t, "profile:3:user:root", credentialKey(3, "root"))
}
