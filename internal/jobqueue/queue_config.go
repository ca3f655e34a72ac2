/*
Package jobqueue configuration - tunable parameters for the River job queue.

# Export queue

Export runs go to their own queue with a single worker, so at most one run
touches the exported flags at a time in a process. Runs are triggered two
ways: by the periodic job built from export.schedule, and on demand through
QueueExportJob (the /tasks/export endpoint). Both only insert a job and
return; the run happens on the worker.

## Tuning
- MaxAttempts bounds how often a failed run is retried by River. A retried
  run is safe: already marked events are skipped and unmarked ones are
  exported again.
- JobTimeout caps a single run. A run cut short leaves the rest of the
  pending events for the next one.
- Schedule is a standard five field cron expression.
*/
package jobqueue

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/riverqueue/river"
)

// ExportQueue is the River queue export jobs run on.
const ExportQueue = "export"

// QueueConfig holds the configurable parameters for the job queue
type QueueConfig struct {
	// Worker Configuration
	ExportWorkers  int // Workers on the export queue (default: 1, runs are serialized)
	DefaultWorkers int // Workers on River's default queue (default: 2)

	// Retry Configuration
	MaxAttempts int           // Attempts per export job before River discards it (default: 5)
	JobTimeout  time.Duration // Maximum time a single export run may take (default: 30 minutes)

	// Scheduling
	Schedule   string // Cron expression for periodic export runs (default: every 10 minutes)
	RunOnStart bool   // Enqueue a run as soon as the client starts
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		ExportWorkers:  1,
		DefaultWorkers: 2,
		MaxAttempts:    5,
		JobTimeout:     30 * time.Minute,
		Schedule:       "*/10 * * * *",
		RunOnStart:     false,
	}
}

// Validate checks the configuration before a client is built from it.
func (c *QueueConfig) Validate() error {
	if c.ExportWorkers != 1 {
		return fmt.Errorf("export queue must have exactly one worker, got %d", c.ExportWorkers)
	}
	if c.Schedule != "" && !gronx.IsValid(c.Schedule) {
		return fmt.Errorf("invalid export schedule %q", c.Schedule)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.DefaultWorkers,
		},
		ExportQueue: {
			MaxWorkers: c.ExportWorkers,
		},
	}
}
