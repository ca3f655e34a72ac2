package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/legalhold/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "legalhold",
		Usage:   "Legal hold archive: conversation transcripts and event export",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "legalhold.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE`",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.TranscriptCommand(),
			cmd.ExportCommand(),
			cmd.IngestCommand(),
			cmd.MigrateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
