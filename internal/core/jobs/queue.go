package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue manages job queue operations
type Queue struct {
	db *gorm.DB
}

// NewQueue creates a new job queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue adds a new job to the queue
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	job := &Job{
		Queue:       opts.Queue,
		Type:        jobType,
		Payload:     payloadJSON,
		Status:      StatusPending,
		Priority:    opts.Priority,
		MaxRetries:  opts.MaxRetries,
		ScheduledAt: opts.ScheduleAt,
	}

	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

// Dequeue claims the next runnable job, or returns nil when there is none.
// Retrying jobs become runnable once their backoff has elapsed.
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	var job Job

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.Where("queue = ? AND status IN ?", queueName, []JobStatus{StatusPending, StatusRetrying}).
			Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
			Order("priority DESC").Order("created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}

		// Claim only if no other worker got there first
		result := tx.Model(&Job{}).
			Where("id = ? AND status = ?", job.ID, job.Status).
			Updates(map[string]interface{}{
				"status":     StatusProcessing,
				"started_at": now,
				"attempts":   job.Attempts + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		job.Status = StatusProcessing
		job.StartedAt = &now
		job.Attempts++
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	return &job, nil
}

// MarkCompleted marks a job as completed
func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": time.Now(),
	}).Error
}

// MarkFailed records the failure and schedules a retry while attempts remain
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr error) error {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("failed to find job: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"error":     jobErr.Error(),
		"failed_at": now,
	}

	if job.Attempts < job.MaxRetries {
		updates["status"] = StatusRetrying
		updates["scheduled_at"] = now.Add(calculateBackoff(job.Attempts))
	} else {
		updates["status"] = StatusFailed
	}

	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists jobs with optional filters
func (q *Queue) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	query := q.db.WithContext(ctx).Model(&Job{})

	if filter.Queue != "" {
		query = query.Where("queue = ?", filter.Queue)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []Job
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// DeleteOldJobs deletes completed/failed jobs older than the specified duration
func (q *Queue) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result := q.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []JobStatus{StatusCompleted, StatusFailed}, cutoff).
		Delete(&Job{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// calculateBackoff returns 2^attempt seconds, capped at one hour
func calculateBackoff(attempt int) time.Duration {
	if attempt > 12 {
		return time.Hour
	}
	backoff := time.Duration(1<<attempt) * time.Second
	if backoff > time.Hour {
		backoff = time.Hour
	}
	return backoff
}
