package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/api"
	"github.com/legalhold/internal/config"
	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/export"
	"github.com/legalhold/internal/jobqueue"
	"github.com/legalhold/internal/transcript"
)

// ServeCommand returns the CLI command for starting the API server and the
// export job queue
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server and the export job queue",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "no-jobs",
				Usage: "Serve transcripts only, without running export jobs",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadValidConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := directory.NewClient(cfg.Directory)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var queue api.ExportQueuer = disabledQueue{}
	if !c.Bool("no-jobs") {
		sink, err := export.OpenSink(cfg.Export.Sink, cfg.Export.Path)
		if err != nil {
			return err
		}
		defer sink.Close()

		exporter := export.New(store, dir, sink, export.NewMetrics(reg))
		jq, err := jobqueue.NewJobQueue(ctx, cfg.Database.URL, exporter, queueConfig(cfg))
		if err != nil {
			return err
		}
		defer jq.Close()

		if err := jq.Start(ctx); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := jq.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("Job queue did not stop cleanly")
			}
		}()
		queue = jq
	}

	server := api.NewServer(cfg.Server.Port, api.Deps{
		Transcripts:   transcript.NewService(store, dir),
		Conversations: store,
		Exports:       queue,
		Gatherer:      reg,
	})

	log.Info().Int("port", cfg.Server.Port).Str("schedule", cfg.Export.Schedule).Msg("Starting legal hold archive")
	return server.Start(ctx)
}

func queueConfig(cfg *config.Config) *jobqueue.QueueConfig {
	qc := jobqueue.DefaultQueueConfig()
	qc.Schedule = cfg.Export.Schedule
	qc.RunOnStart = cfg.Export.RunOnStart
	if cfg.Export.MaxAttempts > 0 {
		qc.MaxAttempts = cfg.Export.MaxAttempts
	}
	if cfg.Export.Timeout > 0 {
		qc.JobTimeout = cfg.Export.Timeout
	}
	return qc
}

type disabledQueue struct{}

func (disabledQueue) QueueExportJob(context.Context, string) error {
	return fmt.Errorf("export jobs are disabled on this server")
}
