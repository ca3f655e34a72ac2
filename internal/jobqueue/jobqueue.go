/*
Package jobqueue runs export passes in the background on a River job queue.

For configuration options, retry policies, and tuning parameters, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/zerolog/log"

	"github.com/legalhold/internal/export"
)

// Runner is one complete export run. *export.Exporter satisfies it.
type Runner interface {
	Run(ctx context.Context) (export.Summary, error)
}

// ExportJobArgs represents the arguments for an export run job
type ExportJobArgs struct {
	Reason      string    `json:"reason"` // schedule | manual | startup
	RequestedAt time.Time `json:"requested_at"`
}

// Kind returns the job kind for River
func (ExportJobArgs) Kind() string {
	return "legalhold_export"
}

// InsertOpts routes export jobs to the single-worker export queue.
func (ExportJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: ExportQueue}
}

// ExportWorker handles export run jobs
type ExportWorker struct {
	river.WorkerDefaults[ExportJobArgs]
	runner  Runner
	timeout time.Duration
}

// NewExportWorker returns a worker that calls runner for every job.
func NewExportWorker(runner Runner, timeout time.Duration) *ExportWorker {
	return &ExportWorker{runner: runner, timeout: timeout}
}

// Work runs one export. An error hands the job back to River for retry.
func (w *ExportWorker) Work(ctx context.Context, job *river.Job[ExportJobArgs]) error {
	logger := log.With().
		Int64("job_id", job.ID).
		Int("attempt", job.Attempt).
		Str("reason", job.Args.Reason).
		Logger()
	logger.Info().Msg("Export run started")

	summary, err := w.runner.Run(logger.WithContext(ctx))
	if err != nil {
		logger.Error().Err(err).Int("marked", summary.Marked).Msg("Export run failed")
		return fmt.Errorf("export run: %w", err)
	}

	logger.Info().
		Int("conversations", summary.Conversations).
		Int("marked", summary.Marked).
		Msg("Export run finished")
	return nil
}

// Timeout bounds a single run.
func (w *ExportWorker) Timeout(*river.Job[ExportJobArgs]) time.Duration {
	return w.timeout
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a pgx pool for databaseURL and a job queue on top of it.
func NewJobQueue(ctx context.Context, databaseURL string, runner Runner, config *QueueConfig) (*JobQueue, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	jq, err := New(pool, runner, config)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return jq, nil
}

// New creates a job queue on an existing pool. A nil config uses the
// defaults.
func New(pool *pgxpool.Pool, runner Runner, config *QueueConfig) (*JobQueue, error) {
	if config == nil {
		config = DefaultQueueConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewExportWorker(runner, config.JobTimeout))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       config.RiverQueueConfig(),
		Workers:      workers,
		PeriodicJobs: periodicJobs(config),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

func periodicJobs(config *QueueConfig) []*river.PeriodicJob {
	if config.Schedule == "" {
		return nil
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			NewCronSchedule(config.Schedule),
			func() (river.JobArgs, *river.InsertOpts) {
				return ExportJobArgs{Reason: "schedule", RequestedAt: time.Now()}, &river.InsertOpts{
					MaxAttempts: config.MaxAttempts,
				}
			},
			&river.PeriodicJobOpts{RunOnStart: config.RunOnStart},
		),
	}
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers. A run in progress is given until ctx
// expires; whatever it has not marked stays pending for the next run.
func (jq *JobQueue) Stop(ctx context.Context) error {
	return jq.client.Stop(ctx)
}

// Close releases the connection pool.
func (jq *JobQueue) Close() {
	jq.pool.Close()
}

// QueueExportJob queues an export run and returns without waiting for it.
func (jq *JobQueue) QueueExportJob(ctx context.Context, reason string) error {
	args := ExportJobArgs{Reason: reason, RequestedAt: time.Now()}

	_, err := jq.client.Insert(ctx, args, &river.InsertOpts{MaxAttempts: jq.config.MaxAttempts})
	if err != nil {
		return fmt.Errorf("failed to queue export job: %w", err)
	}
	return nil
}

// Migrate applies River's schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("failed to migrate River schema: %w", err)
	}
	for _, v := range res.Versions {
		log.Info().Int("version", v.Version).Msg("Applied River migration")
	}
	return nil
}
