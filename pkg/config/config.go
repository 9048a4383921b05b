package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the save manager core.
type Config struct {
	// Application
	AppName string
	Debug   bool

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	DatabasePath string

	// Save locations
	SingleplayerRoot string
	BackupRoot       string

	// Backup behaviour
	BackupZipEnabled       bool
	BackupKeepUncompressed bool

	// Automation
	SchedulerIntervalSeconds int

	// Safety: local save files must not be touched while the game runs
	GameProcessName string

	// World-name resolution
	WorldNameMappingPath     string // bundled defaults
	UserWorldNameMappingPath string // per-user overrides
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	appData := appDataDir()

	config := &Config{
		AppName:                  getEnv("APP_NAME", "shroudkeep"),
		Debug:                    getEnvBool("DEBUG", false),
		LogLevel:                 getEnv("LOG_LEVEL", "INFO"),
		LogJSON:                  getEnvBool("LOG_JSON", false),
		DatabasePath:             getEnv("DATABASE_PATH", filepath.Join(appData, "shroudkeep.db")),
		SingleplayerRoot:         getEnv("SINGLEPLAYER_ROOT", defaultSingleplayerRoot()),
		BackupRoot:               getEnv("BACKUP_ROOT", filepath.Join(appData, "backups")),
		BackupZipEnabled:         getEnvBool("BACKUP_ZIP_ENABLED", true),
		BackupKeepUncompressed:   getEnvBool("BACKUP_KEEP_UNCOMPRESSED", false),
		SchedulerIntervalSeconds: getEnvInt("SCHEDULER_INTERVAL_SECONDS", 30),
		GameProcessName:          getEnv("GAME_PROCESS_NAME", "enshrouded.exe"),
		WorldNameMappingPath:     getEnv("WORLDNAME_MAPPING_PATH", filepath.Join(appData, "assets", "worldname-mapping.json")),
		UserWorldNameMappingPath: getEnv("USER_WORLDNAME_MAPPING_PATH", filepath.Join(appData, "worldname-mapping.json")),
	}

	AppConfig = config
	return config
}

func appDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shroudkeep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shroudkeep"
	}
	return filepath.Join(home, ".shroudkeep")
}

func defaultSingleplayerRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Saved Games", "Enshrouded")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
