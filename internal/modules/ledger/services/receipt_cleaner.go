package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Receipt removal job settings
const (
	JobTypeRemoveReceipts = "receipt.remove"
	FilesQueue            = "files"

	// the file store just failed, so the first retry waits
	removalRetryDelay = time.Minute
)

// RemoveReceiptsPayload is the job payload of a retried removal
type RemoveReceiptsPayload struct {
	Keys []string `json:"keys"`
}

// ReceiptCleaner removes receipt files after their rows are gone. Removal is
// best-effort: a failure is logged and handed to the job queue for retries,
// never returned to the caller.
type ReceiptCleaner struct {
	files FileStore
	jobs  *jobs.Service
	log   zerolog.Logger
}

// NewReceiptCleaner creates a new receipt cleaner; jobSvc may be nil
func NewReceiptCleaner(files FileStore, jobSvc *jobs.Service) *ReceiptCleaner {
	return &ReceiptCleaner{
		files: files,
		jobs:  jobSvc,
		log:   utils.Logger("receipt-cleaner"),
	}
}

// Remove deletes keys, queueing a retry job when the file store fails
func (c *ReceiptCleaner) Remove(ctx context.Context, keys ...string) {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 || c.files == nil {
		return
	}

	err := c.files.Remove(ctx, filtered...)
	if err == nil {
		return
	}

	c.log.Warn().Err(err).Strs("keys", filtered).Msg("Receipt removal failed")
	if c.jobs == nil {
		return
	}

	opts := jobs.DefaultEnqueueOptions()
	opts.Queue = FilesQueue
	opts.MaxRetries = 5
	job, err := c.jobs.EnqueueDelayed(ctx, JobTypeRemoveReceipts, RemoveReceiptsPayload{Keys: filtered}, removalRetryDelay, opts)
	if err != nil {
		c.log.Error().Err(err).Strs("keys", filtered).Msg("Failed to queue receipt removal")
		return
	}
	c.log.Info().Str("job_id", job.ID.String()).Int("files", len(filtered)).Msg("Queued receipt removal retry")
}

// ReceiptRemovalHandler is the job handler retrying queued removals
type ReceiptRemovalHandler struct {
	files FileStore
}

// NewReceiptRemovalHandler creates the handler for receipt.remove jobs
func NewReceiptRemovalHandler(files FileStore) *ReceiptRemovalHandler {
	return &ReceiptRemovalHandler{files: files}
}

// Handle removes the keys in the job payload
func (h *ReceiptRemovalHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var payload RemoveReceiptsPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if len(payload.Keys) == 0 {
		return nil
	}
	return h.files.Remove(ctx, payload.Keys...)
}

// GetType returns the job type handled
func (h *ReceiptRemovalHandler) GetType() string {
	return JobTypeRemoveReceipts
}
