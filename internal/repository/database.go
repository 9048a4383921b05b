package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/pkg/config"
)

var DB *gorm.DB

// InitDB opens the SQLite database and migrates the schema
func InitDB(cfg *config.Config) error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys pragma is off by default in SQLite; the job->profile and
	// run->job constraints depend on it.
	dsn := cfg.DatabasePath + "?_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.AutomationJob{},
		&models.AutomationRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	DB = db
	return nil
}

// OpenTestDB opens a throwaway database for tests
func OpenTestDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Profile{}, &models.AutomationJob{}, &models.AutomationRun{}); err != nil {
		return nil, err
	}
	return db, nil
}
