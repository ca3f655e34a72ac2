package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/config"
	"github.com/legalhold/internal/database"
	"github.com/legalhold/internal/events"
	"github.com/legalhold/internal/logging"
)

// loadConfig reads .env, the config file and the environment, sets up
// logging and checks that a database URL is available. Commands that also
// talk to the directory call config.Validate on the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	envFile := c.String("env-file")
	if err := loadDotEnv(envFile, c.IsSet("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		if url, err := database.URLFromEnv(); err == nil {
			cfg.Database.URL = url
		}
	}

	logging.Setup(cfg.Log)

	if cfg.Database.URL == "" {
		return nil, config.ErrMissingDatabaseURL
	}
	return cfg, nil
}

func loadValidConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *events.PostgresStore, error) {
	db, err := database.Open(ctx, cfg.Database.URL, database.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	return db, events.NewPostgresStore(db), nil
}
