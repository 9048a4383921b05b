package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyProcessNameNeverBlocks(t *testing.T) {
	assert.True(t, NewChecker("").CanWriteLocalSaveFiles())
}

func TestUnlikelyProcessNameDoesNotBlock(t *testing.T) {
	checker := NewChecker("definitely-not-a-real-process-7f3a.exe")
	assert.True(t, checker.CanWriteLocalSaveFiles())
}
