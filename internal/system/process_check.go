package system

import (
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// Checker guards local save mutation. Writing roll files while the game
// holds them open corrupts the slot, so every local write path asks first.
type Checker struct {
	processName string
}

// NewChecker creates a checker watching for the given process name
func NewChecker(processName string) *Checker {
	return &Checker{processName: processName}
}

// CanWriteLocalSaveFiles reports false while the game process is running.
// Enumeration errors degrade to true with a warning; a broken process API
// must not permanently lock the user out of their own saves.
func (c *Checker) CanWriteLocalSaveFiles() bool {
	if c.processName == "" {
		return true
	}

	processes, err := process.Processes()
	if err != nil {
		logger.Warn("SYSTEM: Process enumeration failed", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}

	wanted := strings.ToLower(c.processName)
	for _, proc := range processes {
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.ToLower(name) == wanted {
			logger.Info("SYSTEM: Game process running, local writes blocked", map[string]interface{}{
				"process": name,
				"pid":     proc.Pid,
			})
			return false
		}
	}
	return true
}
