package models

import (
	"time"
)

// AutomationJobType discriminates the two supported job kinds
type AutomationJobType string

const (
	JobTypeServerBackup    AutomationJobType = "server_backup"
	JobTypeScheduledUpload AutomationJobType = "scheduled_upload"
)

// RollMode selects which roll a scheduled upload sends
type RollMode string

const (
	RollModeLatest RollMode = "latest"
	RollModeFixed  RollMode = "fixed"
)

// Run statuses recorded for automation attempts
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// AutomationJob is a persisted automation definition. Schedules are
// minute-granular: the job fires when (hour, minute) match the wall clock
// and the weekday mask matches (Monday = 0).
type AutomationJob struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name    string            `gorm:"uniqueIndex;size:255;not null"`
	Enabled bool              `gorm:"not null;default:true"`
	JobType AutomationJobType `gorm:"size:50;not null"`

	ScheduleHour     int    `gorm:"not null"`
	ScheduleMinute   int    `gorm:"not null"`
	ScheduleWeekdays string `gorm:"size:50;not null;default:'*'"` // "*" or comma-separated 0-6

	ProfileID *uint    `gorm:"index"`
	Profile   *Profile `gorm:"constraint:OnDelete:SET NULL"`

	// Optional override of the profile's remote path
	RemotePath string `gorm:"size:512"`

	// Upload jobs only
	SourceLocalDir  string   `gorm:"size:512"`
	UploadRollMode  RollMode `gorm:"size:20;not null;default:'latest'"`
	UploadFixedRoll *int

	// Retention for backup jobs
	KeepLastN int `gorm:"not null;default:10"`

	// Last-run bookkeeping
	LastRunAt   *time.Time
	LastStatus  string `gorm:"size:20"`
	LastMessage string `gorm:"size:1024"`
}

// TableName specifies the table name
func (AutomationJob) TableName() string {
	return "automation_jobs"
}

// AutomationRun is one append-only history record per execution attempt
type AutomationRun struct {
	ID uint `gorm:"primaryKey"`

	JobID uint           `gorm:"index;not null"`
	Job   *AutomationJob `gorm:"constraint:OnDelete:CASCADE"`

	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null"`
	Status     string    `gorm:"size:20;not null"`
	Message    string    `gorm:"size:1024"`
}

// TableName specifies the table name
func (AutomationRun) TableName() string {
	return "automation_runs"
}
