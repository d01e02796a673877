package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

type removePayload struct {
	Paths []string `json:"paths"`
}

func TestEnqueueAndDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newTestDB(t))

	job, err := q.Enqueue(ctx, "receipt.remove", removePayload{Paths: []string{"a.pdf"}}, EnqueueOptions{Queue: "files"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)

	got, err := q.Dequeue(ctx, "files")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.JSONEq(t, `{"paths":["a.pdf"]}`, string(got.Payload))

	again, err := q.Dequeue(ctx, "files")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestDequeueOtherQueueIsEmpty(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newTestDB(t))

	_, err := q.Enqueue(ctx, "receipt.remove", removePayload{}, EnqueueOptions{Queue: "files"})
	require.NoError(t, err)

	got, err := q.Dequeue(ctx, "default")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarkFailedSchedulesRetryThenGivesUp(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newTestDB(t))

	job, err := q.Enqueue(ctx, "receipt.remove", removePayload{}, EnqueueOptions{Queue: "files", MaxRetries: 1})
	require.NoError(t, err)

	claimed, err := q.Dequeue(ctx, "files")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, q.MarkFailed(ctx, job.ID, errors.New("bucket unavailable")))

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
	assert.Equal(t, "bucket unavailable", stored.Error)
}

func TestMarkFailedRetryIsDelayed(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(newTestDB(t))

	job, err := q.Enqueue(ctx, "receipt.remove", removePayload{}, EnqueueOptions{Queue: "files", MaxRetries: 3})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, "files")
	require.NoError(t, err)

	require.NoError(t, q.MarkFailed(ctx, job.ID, errors.New("timeout")))

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRetrying, stored.Status)
	require.NotNil(t, stored.ScheduledAt)
	assert.True(t, stored.ScheduledAt.After(time.Now()))

	next, err := q.Dequeue(ctx, "files")
	require.NoError(t, err)
	assert.Nil(t, next, "retry must wait for its backoff")
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, calculateBackoff(1))
	assert.Equal(t, 8*time.Second, calculateBackoff(3))
	assert.Equal(t, time.Hour, calculateBackoff(20))
}

type countingHandler struct {
	calls atomic.Int32
}

func (h *countingHandler) GetType() string { return "receipt.remove" }

func (h *countingHandler) Handle(ctx context.Context, job *Job) error {
	h.calls.Add(1)
	return nil
}

func TestWorkerProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewService(newTestDB(t))
	handler := &countingHandler{}
	svc.RegisterWorker(WorkerConfig{
		Queue:        "files",
		Concurrency:  1,
		PollInterval: 10 * time.Millisecond,
		Timeout:      time.Second,
	}, handler)

	job, err := svc.Enqueue(ctx, "receipt.remove", removePayload{Paths: []string{"x"}}, EnqueueOptions{Queue: "files"})
	require.NoError(t, err)

	require.NoError(t, svc.StartWorkers(ctx))
	defer svc.StopWorkers()

	require.Eventually(t, func() bool {
		stored, err := svc.Queue().GetJob(ctx, job.ID)
		return err == nil && stored.Status == StatusCompleted
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), handler.calls.Load())
}

func TestCleanupRemovesFinishedJobs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)

	job, err := svc.Enqueue(ctx, "receipt.remove", removePayload{}, EnqueueOptions{Queue: "files"})
	require.NoError(t, err)
	require.NoError(t, svc.Queue().MarkCompleted(ctx, job.ID))
	require.NoError(t, db.Model(&Job{}).Where("id = ?", job.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	removed, err := svc.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
