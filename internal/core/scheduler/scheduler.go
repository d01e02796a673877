package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Scheduler runs named cron jobs. Expressions include a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID // name -> entry_id
	jobsMux sync.RWMutex
	timeout time.Duration
	log     zerolog.Logger
}

// NewScheduler creates a new scheduler; each run gets a context bounded by timeout
func NewScheduler(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		jobs:    make(map[string]cron.EntryID),
		timeout: timeout,
		log:     utils.Logger("scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.Jobs())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

// AddJob schedules job under name, replacing any job with the same name
func (s *Scheduler) AddJob(name, schedule string, job func(ctx context.Context) error) error {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Info().Str("job", name).Str("schedule", schedule).Msg("scheduled job")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Jobs returns the names of all scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.jobsMux.RLock()
	defer s.jobsMux.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job failed")
		return
	}
	s.log.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job finished")
}
