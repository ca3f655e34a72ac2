package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/jobqueue"
)

// MigrateCommand returns the command that creates the event and job tables.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the event log and job queue schemas",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, store, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(c.Context); err != nil {
				return err
			}
			log.Info().Msg("Event log schema is up to date")

			pool, err := pgxpool.New(c.Context, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to create connection pool: %w", err)
			}
			defer pool.Close()

			if err := jobqueue.Migrate(c.Context, pool); err != nil {
				return err
			}
			log.Info().Msg("Job queue schema is up to date")
			return nil
		},
	}
}
