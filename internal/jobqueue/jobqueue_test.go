package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalhold/internal/export"
)

type stubRunner struct {
	calls   int
	summary export.Summary
	err     error
}

func (s *stubRunner) Run(context.Context) (export.Summary, error) {
	s.calls++
	return s.summary, s.err
}

func job(reason string) *river.Job[ExportJobArgs] {
	return &river.Job[ExportJobArgs]{
		JobRow: &rivertype.JobRow{ID: 7, Attempt: 1},
		Args:   ExportJobArgs{Reason: reason},
	}
}

func TestExportWorker(t *testing.T) {
	runner := &stubRunner{summary: export.Summary{Conversations: 2, Marked: 5}}
	w := NewExportWorker(runner, time.Minute)

	require.NoError(t, w.Work(context.Background(), job("manual")))
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, time.Minute, w.Timeout(nil))
}

func TestExportWorkerFailureIsRetried(t *testing.T) {
	runner := &stubRunner{err: errors.New("connection reset")}
	err := NewExportWorker(runner, time.Minute).Work(context.Background(), job("schedule"))
	assert.Error(t, err)
}

func TestExportJobArgs(t *testing.T) {
	args := ExportJobArgs{}
	assert.Equal(t, "legalhold_export", args.Kind())
	assert.Equal(t, ExportQueue, args.InsertOpts().Queue)
}

func TestCronSchedule(t *testing.T) {
	s := NewCronSchedule("*/10 * * * *")
	from := time.Date(2024, 5, 1, 12, 3, 0, 0, time.UTC)

	next := s.Next(from)
	assert.WithinDuration(t, time.Date(2024, 5, 1, 12, 10, 0, 0, time.UTC), next, 0)
	assert.WithinDuration(t, time.Date(2024, 5, 1, 12, 20, 0, 0, time.UTC), s.Next(next), 0)
}

func TestCronScheduleFallback(t *testing.T) {
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.WithinDuration(t, from.Add(time.Hour), NewCronSchedule("not a cron").Next(from), 0)
}

func TestQueueConfigValidate(t *testing.T) {
	cfg := DefaultQueueConfig()
	require.NoError(t, cfg.Validate())

	cfg.ExportWorkers = 4
	assert.Error(t, cfg.Validate())

	cfg = DefaultQueueConfig()
	cfg.Schedule = "every day"
	assert.Error(t, cfg.Validate())

	cfg = DefaultQueueConfig()
	cfg.Schedule = ""
	assert.NoError(t, cfg.Validate(), "empty schedule disables periodic runs")
	assert.Nil(t, periodicJobs(cfg))
}

func TestRiverQueueConfig(t *testing.T) {
	queues := DefaultQueueConfig().RiverQueueConfig()
	assert.Equal(t, 1, queues[ExportQueue].MaxWorkers)
	assert.Contains(t, queues, river.QueueDefault)
}
