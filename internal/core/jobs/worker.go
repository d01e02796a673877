package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// ErrNoJobsAvailable is returned when no jobs are available
var ErrNoJobsAvailable = errors.New("no jobs available")

// Worker processes jobs from a queue
type Worker struct {
	queue    *Queue
	config   WorkerConfig
	handlers map[string]JobHandler
	log      zerolog.Logger
	mu       sync.RWMutex
	stopped  bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a new job worker
func NewWorker(queue *Queue, config WorkerConfig) *Worker {
	return &Worker{
		queue:    queue,
		config:   config,
		handlers: make(map[string]JobHandler),
		log:      utils.Logger("jobs").With().Str("queue", config.Queue).Logger(),
		stop:     make(chan struct{}),
	}
}

// RegisterHandler registers a job handler for a specific job type
func (w *Worker) RegisterHandler(handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[handler.GetType()] = handler
	w.log.Debug().Str("type", handler.GetType()).Msg("registered job handler")
}

// Start starts the worker goroutines
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("worker is stopped, cannot restart")
	}
	w.mu.Unlock()

	w.log.Info().Int("concurrency", w.config.Concurrency).Msg("starting job worker")

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	return nil
}

// Stop signals all goroutines and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stop)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info().Msg("job worker stopped")
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if err := w.processNextJob(ctx, workerID); err != nil && !errors.Is(err, ErrNoJobsAvailable) {
				w.log.Warn().Err(err).Int("worker", workerID).Msg("job poll failed")
			}
		}
	}
}

// processNextJob processes the next available job
func (w *Worker) processNextJob(ctx context.Context, workerID int) error {
	job, err := w.queue.Dequeue(ctx, w.config.Queue)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrNoJobsAvailable
	}

	logger := w.log.With().
		Int("worker", workerID).
		Str("job_id", job.ID.String()).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Logger()

	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		logger.Error().Msg("no handler registered for job type")
		if err := w.queue.MarkFailed(ctx, job.ID, fmt.Errorf("no handler registered for job type: %s", job.Type)); err != nil {
			logger.Warn().Err(err).Msg("failed to mark job as failed")
		}
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	startTime := time.Now()
	err = handler.Handle(jobCtx, job)
	duration := time.Since(startTime)

	if err != nil {
		logger.Warn().Err(err).Dur("duration", duration).Msg("job failed")
		if markErr := w.queue.MarkFailed(ctx, job.ID, err); markErr != nil {
			logger.Warn().Err(markErr).Msg("failed to mark job as failed")
		}
		return nil
	}

	logger.Debug().Dur("duration", duration).Msg("job completed")
	if err := w.queue.MarkCompleted(ctx, job.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to mark job as completed")
	}

	return nil
}

// WorkerPool manages multiple workers across different queues
type WorkerPool struct {
	workers []*Worker
	mu      sync.RWMutex
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{}
}

// AddWorker adds a worker to the pool
func (p *WorkerPool) AddWorker(worker *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers = append(p.workers, worker)
}

// Start starts all workers in the pool
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, worker := range p.workers {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}
	return nil
}

// Stop stops all workers in the pool
func (p *WorkerPool) Stop() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, worker := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(worker)
	}
	wg.Wait()
}
