// Package schedule fires the evaluation run after the market close.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSpec fires at 15:45 IST on weekdays, fifteen minutes after
// the 15:30 close. Specs use the six-field form with a leading
// seconds column.
const DefaultSpec = "0 45 15 * * MON-FRI"

// Job is one schedulable unit of work.
type Job func(ctx context.Context) error

// JobStatus is a snapshot of how a registered job has behaved so far.
type JobStatus struct {
	Name     string
	Spec     string
	Runs     int
	Failures int
	LastRun  time.Time
	LastErr  string
}

// Scheduler wraps cron with per-job run counters and last-error
// tracking.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	mu     sync.RWMutex
	status map[string]*JobStatus
}

// New creates a scheduler whose specs are interpreted in loc.
func New(loc *time.Location, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		logger: logger,
		status: make(map[string]*JobStatus),
	}
}

// Add registers job under name on the given cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.status[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.status[name] = &JobStatus{Name: name, Spec: spec}
	s.logger.Info().Str("job", name).Str("spec", spec).Msg("job scheduled")

	return nil
}

func (s *Scheduler) runJob(name string, job Job) {
	start := time.Now()
	s.logger.Info().Str("job", name).Msg("job started")

	err := job(context.Background())
	elapsed := time.Since(start)

	s.mu.Lock()
	if st, ok := s.status[name]; ok {
		st.Runs++
		st.LastRun = start
		if err != nil {
			st.Failures++
			st.LastErr = err.Error()
		} else {
			st.LastErr = ""
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Str("job", name).Dur("elapsed", elapsed).Err(err).Msg("job failed")
		return
	}
	s.logger.Info().Str("job", name).Dur("elapsed", elapsed).Msg("job completed")
}

// Start begins firing jobs and returns immediately.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Status returns a snapshot of every registered job, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.status))
	for _, st := range s.status {
		statuses = append(statuses, *st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	return statuses
}
