package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusRetrying   JobStatus = "retrying"
)

// JobPriority represents the priority of a job
type JobPriority int

const (
	PriorityLow    JobPriority = 0
	PriorityNormal JobPriority = 5
	PriorityHigh   JobPriority = 10
)

// Job represents a background job in the database
type Job struct {
	ID      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Queue   string         `gorm:"type:varchar(100);not null;index"`
	Type    string         `gorm:"type:varchar(100);not null"`
	Payload datatypes.JSON `gorm:"type:jsonb"`

	Status   JobStatus   `gorm:"type:varchar(20);not null;index"`
	Priority JobPriority `gorm:"not null;index"`

	Attempts   int `gorm:"not null"`
	MaxRetries int `gorm:"not null"`

	ScheduledAt *time.Time `gorm:"index"` // For delayed jobs and retries
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time

	Error string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for Job model
func (Job) TableName() string {
	return "jobs"
}

// BeforeCreate sets UUID before creating
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// JobHandler is the interface that job handlers must implement
type JobHandler interface {
	Handle(ctx context.Context, job *Job) error
	GetType() string
}

// EnqueueOptions contains options for enqueueing a job
type EnqueueOptions struct {
	Queue      string
	Priority   JobPriority
	MaxRetries int
	ScheduleAt *time.Time
}

// DefaultEnqueueOptions returns default enqueue options
func DefaultEnqueueOptions() EnqueueOptions {
	return EnqueueOptions{
		Queue:      "default",
		Priority:   PriorityNormal,
		MaxRetries: 3,
	}
}

// JobFilter contains options for filtering jobs
type JobFilter struct {
	Queue  string
	Type   string
	Status JobStatus
	Limit  int
}

// WorkerConfig contains configuration for job workers
type WorkerConfig struct {
	Queue        string
	Concurrency  int           // Number of concurrent workers
	PollInterval time.Duration // How often to poll for new jobs
	Timeout      time.Duration // Maximum time for job execution
}
