package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shroudkeep/shroudkeep/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenTestDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func testProfile(name string) *models.Profile {
	return &models.Profile{
		Name:       name,
		Protocol:   models.ProtocolSFTP,
		Host:       "game.example.com",
		Port:       22,
		Username:   "enshrouded",
		RemotePath: "/savegame",
	}
}

func TestProfileCRUD(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db)

	profile := testProfile("prod")
	require.NoError(t, repo.Create(profile))
	require.NotZero(t, profile.ID)

	found, err := repo.FindByName("prod")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, found.ID)
	assert.Equal(t, models.ProtocolSFTP, found.Protocol)

	found.Host = "new.example.com"
	require.NoError(t, repo.Update(found))

	reloaded, err := repo.FindByID(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.example.com", reloaded.Host)

	require.NoError(t, repo.Delete(profile.ID))
	_, err = repo.FindByID(profile.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfileNameIsUnique(t *testing.T) {
	repo := NewProfileRepository(testDB(t))

	require.NoError(t, repo.Create(testProfile("dup")))
	assert.Error(t, repo.Create(testProfile("dup")))
}

func TestJobLifecycleAndRuns(t *testing.T) {
	db := testDB(t)
	profiles := NewProfileRepository(db)
	automation := NewAutomationRepository(db)

	profile := testProfile("prod")
	require.NoError(t, profiles.Create(profile))

	job := &models.AutomationJob{
		Name:            "nightly backup",
		Enabled:         true,
		JobType:         models.JobTypeServerBackup,
		ScheduleHour:    3,
		ScheduleMinute:  30,
		ScheduleWeekdays: "*",
		ProfileID:       &profile.ID,
		RemotePath:      "/savegame",
		KeepLastN:       5,
	}
	require.NoError(t, automation.CreateJob(job))

	loaded, err := automation.FindJobByID(job.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Profile)
	assert.Equal(t, "prod", loaded.Profile.Name)

	started := time.Now().Add(-time.Minute)
	require.NoError(t, automation.RecordRun(&models.AutomationRun{
		JobID:      job.ID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Status:     models.RunStatusSuccess,
		Message:    "done",
	}))
	require.NoError(t, automation.UpdateLastState(job.ID, started, models.RunStatusSuccess, "done"))

	runs, err := automation.FindRunsByJob(job.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)

	reloaded, err := automation.FindJobByID(job.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastRunAt)
	assert.Equal(t, models.RunStatusSuccess, reloaded.LastStatus)
}

func TestFindEnabledJobsFiltersDisabled(t *testing.T) {
	automation := NewAutomationRepository(testDB(t))

	require.NoError(t, automation.CreateJob(&models.AutomationJob{Name: "on", Enabled: true, JobType: models.JobTypeServerBackup, ScheduleWeekdays: "*"}))
	require.NoError(t, automation.CreateJob(&models.AutomationJob{Name: "off", Enabled: false, JobType: models.JobTypeServerBackup, ScheduleWeekdays: "*"}))

	jobs, err := automation.FindEnabledJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "on", jobs[0].Name)
}

func TestDeletingProfileDetachesJobs(t *testing.T) {
	db := testDB(t)
	profiles := NewProfileRepository(db)
	automation := NewAutomationRepository(db)

	profile := testProfile("doomed")
	require.NoError(t, profiles.Create(profile))

	job := &models.AutomationJob{Name: "upload", Enabled: true, JobType: models.JobTypeScheduledUpload, ScheduleWeekdays: "*", ProfileID: &profile.ID}
	require.NoError(t, automation.CreateJob(job))

	require.NoError(t, profiles.Delete(profile.ID))

	reloaded, err := automation.FindJobByID(job.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ProfileID)
}

func TestDeletingJobCascadesRuns(t *testing.T) {
	db := testDB(t)
	automation := NewAutomationRepository(db)

	job := &models.AutomationJob{Name: "doomed", Enabled: true, JobType: models.JobTypeServerBackup, ScheduleWeekdays: "*"}
	require.NoError(t, automation.CreateJob(job))
	require.NoError(t, automation.RecordRun(&models.AutomationRun{JobID: job.ID, StartedAt: time.Now(), Status: models.RunStatusFailed, Message: "x"}))

	require.NoError(t, automation.DeleteJob(job.ID))

	runs, err := automation.FindRunsByJob(job.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
