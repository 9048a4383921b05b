package repository

import (
	"gorm.io/gorm"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepository) FindByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByName(name string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("name = ?", name).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindAll() ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.Order("name").Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

func (r *ProfileRepository) Delete(id uint) error {
	return r.db.Unscoped().Where("id = ?", id).Delete(&models.Profile{}).Error
}
