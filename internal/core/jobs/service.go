package jobs

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Service provides high-level job queue functionality
type Service struct {
	queue      *Queue
	workerPool *WorkerPool
}

// NewService creates a new job service
func NewService(db *gorm.DB) *Service {
	return &Service{
		queue:      NewQueue(db),
		workerPool: NewWorkerPool(),
	}
}

// Queue exposes the underlying queue
func (s *Service) Queue() *Queue {
	return s.queue
}

// Enqueue adds a new job to the queue
func (s *Service) Enqueue(ctx context.Context, jobType string, payload interface{}, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return s.queue.Enqueue(ctx, jobType, payload, options)
}

// EnqueueDelayed adds a job that becomes runnable after delay
func (s *Service) EnqueueDelayed(ctx context.Context, jobType string, payload interface{}, delay time.Duration, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	scheduleAt := time.Now().Add(delay)
	options.ScheduleAt = &scheduleAt
	return s.queue.Enqueue(ctx, jobType, payload, options)
}

// ListJobs lists jobs with filters
func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	return s.queue.ListJobs(ctx, filter)
}

// RegisterWorker creates and registers a worker for a queue
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...JobHandler) *Worker {
	worker := NewWorker(s.queue, config)
	for _, handler := range handlers {
		worker.RegisterHandler(handler)
	}
	s.workerPool.AddWorker(worker)
	return worker
}

// StartWorkers starts all registered workers
func (s *Service) StartWorkers(ctx context.Context) error {
	return s.workerPool.Start(ctx)
}

// StopWorkers stops all workers
func (s *Service) StopWorkers() {
	s.workerPool.Stop()
}

// Cleanup deletes old completed/failed jobs
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOldJobs(ctx, olderThan)
}
