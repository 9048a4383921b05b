package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

type AutomationRepository struct {
	db *gorm.DB
}

func NewAutomationRepository(db *gorm.DB) *AutomationRepository {
	return &AutomationRepository{db: db}
}

func (r *AutomationRepository) CreateJob(job *models.AutomationJob) error {
	return r.db.Create(job).Error
}

func (r *AutomationRepository) FindJobByID(id uint) (*models.AutomationJob, error) {
	var job models.AutomationJob
	err := r.db.Preload("Profile").Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *AutomationRepository) FindJobByName(name string) (*models.AutomationJob, error) {
	var job models.AutomationJob
	err := r.db.Preload("Profile").Where("name = ?", name).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *AutomationRepository) FindAllJobs() ([]models.AutomationJob, error) {
	var jobs []models.AutomationJob
	err := r.db.Preload("Profile").Order("name").Find(&jobs).Error
	return jobs, err
}

func (r *AutomationRepository) FindEnabledJobs() ([]models.AutomationJob, error) {
	var jobs []models.AutomationJob
	err := r.db.Preload("Profile").Where("enabled = ?", true).Find(&jobs).Error
	return jobs, err
}

func (r *AutomationRepository) UpdateJob(job *models.AutomationJob) error {
	return r.db.Save(job).Error
}

func (r *AutomationRepository) DeleteJob(id uint) error {
	return r.db.Unscoped().Where("id = ?", id).Delete(&models.AutomationJob{}).Error
}

// RecordRun appends one run row for a finished or skipped attempt
func (r *AutomationRepository) RecordRun(run *models.AutomationRun) error {
	return r.db.Create(run).Error
}

func (r *AutomationRepository) FindRunsByJob(jobID uint, limit int) ([]models.AutomationRun, error) {
	var runs []models.AutomationRun
	query := r.db.Where("job_id = ?", jobID).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// UpdateLastState stamps the job's last-run summary fields in one write
func (r *AutomationRepository) UpdateLastState(jobID uint, ranAt time.Time, status, message string) error {
	return r.db.Model(&models.AutomationJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"last_run_at":  ranAt,
			"last_status":  status,
			"last_message": message,
		}).Error
}
