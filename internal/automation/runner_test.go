package automation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shroudkeep/shroudkeep/internal/events"
	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/secrets"
)

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[uint]*models.AutomationJob
	runs []models.AutomationRun
}

func newFakeJobStore(jobs ...*models.AutomationJob) *fakeJobStore {
	store := &fakeJobStore{jobs: make(map[uint]*models.AutomationJob)}
	for _, job := range jobs {
		store.jobs[job.ID] = job
	}
	return store
}

func (f *fakeJobStore) FindJobByID(id uint) (*models.AutomationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	return job, nil
}

func (f *fakeJobStore) RecordRun(run *models.AutomationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeJobStore) UpdateLastState(jobID uint, ranAt time.Time, status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[jobID]; ok {
		job.LastRunAt = &ranAt
		job.LastStatus = status
		job.LastMessage = message
	}
	return nil
}

func (f *fakeJobStore) recordedRuns() []models.AutomationRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AutomationRun(nil), f.runs...)
}

type fakeProfileStore struct {
	profiles map[uint]*models.Profile
}

func (f *fakeProfileStore) FindByID(id uint) (*models.Profile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	return profile, nil
}

type stubExecutor struct {
	result  ExecutionResult
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *stubExecutor) Execute(ctx context.Context, job *models.AutomationJob, profile *models.Profile, password string) ExecutionResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.release != nil {
		<-s.release
	}
	return s.result
}

func testRunnerSetup(t *testing.T, executor JobExecutor) (*Runner, *fakeJobStore, *models.AutomationJob) {
	t.Helper()

	profileID := uint(1)
	job := &models.AutomationJob{
		ID:        7,
		Name:      "nightly",
		Enabled:   true,
		JobType:   models.JobTypeServerBackup,
		ProfileID: &profileID,
	}
	jobs := newFakeJobStore(job)
	profiles := &fakeProfileStore{profiles: map[uint]*models.Profile{
		1: {ID: 1, Name: "prod", Protocol: models.ProtocolSFTP, Username: "admin"},
	}}

	credentials := secrets.NewMemoryService()
	require.NoError(t, credentials.SetPassword(1, "admin", "pw"))

	runner := NewRunner(jobs, profiles, credentials, map[models.AutomationJobType]JobExecutor{
		models.JobTypeServerBackup: executor,
	}, nil)
	return runner, jobs, job
}

func TestRunJobRecordsSuccess(t *testing.T) {
	executor := &stubExecutor{result: ExecutionResult{Status: models.RunStatusSuccess, Message: "done"}}
	runner, jobs, job := testRunnerSetup(t, executor)

	runner.RunJobID(job.ID)
	runner.Wait()

	runs := jobs.recordedRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, "done", runs[0].Message)
	assert.Equal(t, 1, executor.calls)

	assert.Equal(t, models.RunStatusSuccess, job.LastStatus)
	require.NotNil(t, job.LastRunAt)
}

func TestRunJobWithoutProfileFails(t *testing.T) {
	executor := &stubExecutor{result: ExecutionResult{Status: models.RunStatusSuccess}}
	runner, jobs, job := testRunnerSetup(t, executor)
	job.ProfileID = nil

	runner.RunJob(job)
	runner.Wait()

	runs := jobs.recordedRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Message, "profile")
	assert.Zero(t, executor.calls)
}

func TestRunJobWithoutPasswordFails(t *testing.T) {
	executor := &stubExecutor{result: ExecutionResult{Status: models.RunStatusSuccess}}

	profileID := uint(1)
	job := &models.AutomationJob{ID: 7, JobType: models.JobTypeServerBackup, ProfileID: &profileID}
	jobs := newFakeJobStore(job)
	profiles := &fakeProfileStore{profiles: map[uint]*models.Profile{
		1: {ID: 1, Name: "prod", Username: "admin"},
	}}

	runner := NewRunner(jobs, profiles, secrets.NewMemoryService(), map[models.AutomationJobType]JobExecutor{
		models.JobTypeServerBackup: executor,
	}, nil)

	runner.RunJob(job)
	runner.Wait()

	runs := jobs.recordedRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Message, "credentials")
}

func TestOverlappingTriggerIsSkipped(t *testing.T) {
	executor := &stubExecutor{
		result:  ExecutionResult{Status: models.RunStatusSuccess, Message: "done"},
		release: make(chan struct{}),
	}
	runner, jobs, job := testRunnerSetup(t, executor)

	runner.RunJob(job)
	for !runner.IsRunning(job.ID) {
		time.Sleep(time.Millisecond)
	}

	runner.RunJob(job)
	close(executor.release)
	runner.Wait()

	statuses := make(map[string]int)
	for _, run := range jobs.recordedRuns() {
		statuses[run.Status]++
	}
	assert.Equal(t, map[string]int{models.RunStatusSkipped: 1, models.RunStatusSuccess: 1}, statuses)
	assert.Equal(t, 1, executor.calls)
	assert.False(t, runner.IsRunning(job.ID))
}

func TestUnknownJobTypeFails(t *testing.T) {
	runner, jobs, job := testRunnerSetup(t, &stubExecutor{})
	job.JobType = "mystery"

	runner.RunJob(job)
	runner.Wait()

	runs := jobs.recordedRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Message, "unknown job type")
}

func TestRunnerPublishesLifecycleEvents(t *testing.T) {
	executor := &stubExecutor{result: ExecutionResult{Status: models.RunStatusSuccess, Message: "done"}}

	profileID := uint(1)
	job := &models.AutomationJob{ID: 3, Name: "evented", JobType: models.JobTypeServerBackup, ProfileID: &profileID}
	jobs := newFakeJobStore(job)
	profiles := &fakeProfileStore{profiles: map[uint]*models.Profile{
		1: {ID: 1, Name: "prod", Username: "admin"},
	}}
	credentials := secrets.NewMemoryService()
	require.NoError(t, credentials.SetPassword(1, "admin", "pw"))

	bus := events.NewBus()
	var mu sync.Mutex
	var seen []events.Type
	record := func(e events.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	}
	bus.Subscribe(events.JobStarted, record)
	bus.Subscribe(events.JobFinished, record)

	runner := NewRunner(jobs, profiles, credentials, map[models.AutomationJobType]JobExecutor{
		models.JobTypeServerBackup: executor,
	}, bus)

	runner.RunJob(job)
	runner.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.Type{events.JobStarted, events.JobFinished}, seen)
}
