package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(time.Second)
	err := s.AddJob("daily-summary", "not a cron", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestAddJobReplacesByName(t *testing.T) {
	s := NewScheduler(time.Second)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddJob("daily-summary", "0 0 18 * * *", noop))
	require.NoError(t, s.AddJob("daily-summary", "0 0 19 * * *", noop))
	require.NoError(t, s.AddJob("job-cleanup", "0 30 3 * * *", noop))

	jobs := s.Jobs()
	sort.Strings(jobs)
	assert.Equal(t, []string{"daily-summary", "job-cleanup"}, jobs)

	s.RemoveJob("job-cleanup")
	assert.Equal(t, []string{"daily-summary"}, s.Jobs())
}

func TestJobRuns(t *testing.T) {
	s := NewScheduler(time.Second)
	var runs atomic.Int32

	require.NoError(t, s.AddJob("tick", "* * * * * *", func(ctx context.Context) error {
		runs.Add(1)
		_, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			return errors.New("missing deadline")
		}
		return nil
	}))

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
