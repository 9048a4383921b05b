package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shroudkeep/shroudkeep/internal/events"
	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/internal/remote"
	"github.com/shroudkeep/shroudkeep/internal/secrets"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

// ExecutionResult is what a job executor reports back
type ExecutionResult struct {
	Status  string
	Message string
}

// JobExecutor runs one kind of automation job to completion
type JobExecutor interface {
	Execute(ctx context.Context, job *models.AutomationJob, profile *models.Profile, password string) ExecutionResult
}

// ClientFactory builds a transport client for a profile
type ClientFactory func(profile models.Profile, password string) (remote.Client, error)

// JobStore is the slice of the automation repository the runner needs
type JobStore interface {
	FindJobByID(id uint) (*models.AutomationJob, error)
	RecordRun(run *models.AutomationRun) error
	UpdateLastState(jobID uint, ranAt time.Time, status, message string) error
}

// ProfileStore resolves the profile a job runs against
type ProfileStore interface {
	FindByID(id uint) (*models.Profile, error)
}

// Runner executes automation jobs off the caller's goroutine. A job id can
// be in flight at most once; overlapping triggers are recorded as skipped.
type Runner struct {
	jobs        JobStore
	profiles    ProfileStore
	credentials secrets.CredentialService
	executors   map[models.AutomationJobType]JobExecutor
	bus         *events.Bus

	mu      sync.Mutex
	running map[uint]bool
	wg      sync.WaitGroup
}

// NewRunner creates a runner. bus may be nil.
func NewRunner(jobs JobStore, profiles ProfileStore, credentials secrets.CredentialService, executors map[models.AutomationJobType]JobExecutor, bus *events.Bus) *Runner {
	return &Runner{
		jobs:        jobs,
		profiles:    profiles,
		credentials: credentials,
		executors:   executors,
		bus:         bus,
		running:     make(map[uint]bool),
	}
}

// RunJobID loads and runs a job. Unknown ids are ignored; the scheduler
// may race a deletion.
func (r *Runner) RunJobID(jobID uint) {
	job, err := r.jobs.FindJobByID(jobID)
	if err != nil {
		logger.Warn("RUNNER: Job not found", map[string]interface{}{"job_id": jobID})
		return
	}
	r.RunJob(job)
}

// RunJob validates preconditions and executes the job on its own goroutine
func (r *Runner) RunJob(job *models.AutomationJob) {
	if job == nil || job.ID == 0 {
		return
	}

	r.mu.Lock()
	if r.running[job.ID] {
		r.mu.Unlock()
		r.finalize(job.ID, time.Now(), models.RunStatusSkipped, "job is already running")
		return
	}
	r.running[job.ID] = true
	r.mu.Unlock()

	startedAt := time.Now()

	profile, password, err := r.preflight(job)
	if err != nil {
		r.release(job.ID)
		r.finalize(job.ID, startedAt, models.RunStatusFailed, err.Error())
		return
	}

	executor, ok := r.executors[job.JobType]
	if !ok {
		r.release(job.ID)
		r.finalize(job.ID, startedAt, models.RunStatusFailed, fmt.Sprintf("unknown job type: %s", job.JobType))
		return
	}

	logger.Info("RUNNER: Job started", map[string]interface{}{
		"job_id":   job.ID,
		"job_name": job.Name,
		"job_type": string(job.JobType),
	})
	if r.bus != nil {
		r.bus.Publish(events.JobStarted, map[string]interface{}{"job_id": job.ID, "job_name": job.Name})
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(job.ID)
		defer func() {
			if rec := recover(); rec != nil {
				r.finalize(job.ID, startedAt, models.RunStatusFailed, fmt.Sprintf("job panicked: %v", rec))
			}
		}()

		result := executor.Execute(context.Background(), job, profile, password)
		r.finalize(job.ID, startedAt, result.Status, result.Message)
	}()
}

// Wait blocks until all in-flight jobs have finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

// IsRunning reports whether the job id is currently in flight
func (r *Runner) IsRunning(jobID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[jobID]
}

func (r *Runner) preflight(job *models.AutomationJob) (*models.Profile, string, error) {
	if job.ProfileID == nil {
		return nil, "", fmt.Errorf("job has no connection profile")
	}

	profile, err := r.profiles.FindByID(*job.ProfileID)
	if err != nil {
		return nil, "", fmt.Errorf("job has no connection profile")
	}

	password, err := r.credentials.GetPassword(profile.ID, profile.Username)
	if err != nil || strings.TrimSpace(password) == "" {
		return nil, "", fmt.Errorf("no stored credentials for profile %q", profile.Name)
	}

	return profile, password, nil
}

func (r *Runner) release(jobID uint) {
	r.mu.Lock()
	delete(r.running, jobID)
	r.mu.Unlock()
}

// finalize writes the run record and last-state summary, then notifies
// observers. Every attempt ends here exactly once.
func (r *Runner) finalize(jobID uint, startedAt time.Time, status, message string) {
	if strings.TrimSpace(message) == "" {
		message = "job failed"
	}
	finishedAt := time.Now()

	if err := r.jobs.UpdateLastState(jobID, finishedAt, status, message); err != nil {
		logger.Error("RUNNER: Failed to update job state", err, map[string]interface{}{"job_id": jobID})
	}
	if err := r.jobs.RecordRun(&models.AutomationRun{
		JobID:      jobID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Status:     status,
		Message:    message,
	}); err != nil {
		logger.Error("RUNNER: Failed to record run", err, map[string]interface{}{"job_id": jobID})
	}

	logger.Info("RUNNER: Job finished", map[string]interface{}{
		"job_id": jobID,
		"status": status,
	})
	if r.bus != nil {
		r.bus.Publish(events.JobFinished, map[string]interface{}{
			"job_id":  jobID,
			"status":  status,
			"message": message,
		})
	}
}
