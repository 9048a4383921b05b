package automation

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shroudkeep/shroudkeep/internal/models"
	"github.com/shroudkeep/shroudkeep/pkg/logger"
)

const minuteKeyLayout = "200601021504"

// JobSource lists the persisted automation jobs
type JobSource interface {
	FindAllJobs() ([]models.AutomationJob, error)
}

// Scheduler fires due automation jobs at most once per calendar minute.
// The ticker is deliberately faster than a minute; ticks inside an already
// handled minute are no-ops, so timer drift cannot skip a schedule.
type Scheduler struct {
	jobs     JobSource
	interval time.Duration
	onDue    func(jobID uint)

	mu            sync.Mutex
	ticker        *time.Ticker
	stop          chan struct{}
	lastMinuteKey string
	lastRunKeys   map[uint]string
}

// NewScheduler creates a scheduler that calls onDue for every due job
func NewScheduler(jobs JobSource, interval time.Duration, onDue func(jobID uint)) *Scheduler {
	if interval < time.Second {
		interval = time.Second
	}
	return &Scheduler{
		jobs:        jobs,
		interval:    interval,
		onDue:       onDue,
		lastRunKeys: make(map[uint]string),
	}
}

// Start begins ticking. Starting a running scheduler is a no-op. The first
// tick happens immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.ticker = time.NewTicker(s.interval)
	stop := s.stop
	ticker := s.ticker
	s.mu.Unlock()

	logger.Info("SCHEDULER: Started", map[string]interface{}{
		"interval": s.interval.String(),
	})

	s.Tick(time.Now())

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Tick(time.Now())
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the ticker. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.stop = nil
	s.ticker = nil

	logger.Info("SCHEDULER: Stopped", nil)
}

// IsRunning reports whether the scheduler is ticking
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Tick evaluates all jobs against now. Repeated calls within the same
// calendar minute do nothing.
func (s *Scheduler) Tick(now time.Time) {
	minuteKey := now.Format(minuteKeyLayout)

	s.mu.Lock()
	if s.lastMinuteKey == minuteKey {
		s.mu.Unlock()
		return
	}
	s.lastMinuteKey = minuteKey
	s.mu.Unlock()

	jobs, err := s.jobs.FindAllJobs()
	if err != nil {
		logger.Error("SCHEDULER: Failed to load jobs", err, nil)
		return
	}

	for _, job := range jobs {
		if !s.ShouldRun(&job, now) {
			continue
		}

		s.mu.Lock()
		s.lastRunKeys[job.ID] = minuteKey
		s.mu.Unlock()

		logger.Info("SCHEDULER: Job due", map[string]interface{}{
			"job_id":   job.ID,
			"job_name": job.Name,
		})
		if s.onDue != nil {
			s.onDue(job.ID)
		}
	}
}

// ShouldRun reports whether the job's schedule matches now and the job has
// not already fired this minute, in this process or a previous one.
func (s *Scheduler) ShouldRun(job *models.AutomationJob, now time.Time) bool {
	if !job.Enabled || job.ID == 0 {
		return false
	}
	if job.ScheduleMinute != now.Minute() || job.ScheduleHour != now.Hour() {
		return false
	}
	if !weekdayMatches(job.ScheduleWeekdays, mondayBasedWeekday(now)) {
		return false
	}

	minuteKey := now.Format(minuteKeyLayout)
	if job.LastRunAt != nil && job.LastRunAt.Format(minuteKeyLayout) == minuteKey {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunKeys[job.ID] != minuteKey
}

// mondayBasedWeekday maps Go's Sunday-based weekday to the stored
// convention of Monday = 0.
func mondayBasedWeekday(now time.Time) int {
	return (int(now.Weekday()) + 6) % 7
}

// weekdayMatches parses the stored mask: "*" for every day, otherwise a
// comma-separated list of indices 0-6. Unparseable parts are skipped; a
// mask with no valid indices matches nothing.
func weekdayMatches(mask string, weekday int) bool {
	cleaned := strings.TrimSpace(mask)
	if cleaned == "*" {
		return true
	}

	matched := false
	valid := false
	for _, part := range strings.Split(cleaned, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 || index > 6 {
			continue
		}
		valid = true
		if index == weekday {
			matched = true
		}
	}
	return valid && matched
}
