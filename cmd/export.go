package cmd

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/export"
)

// ExportCommand returns the command that runs one export synchronously.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export every conversation with pending events once and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sink",
				Usage: "Override export.sink (stdout or file)",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Override export.path for the file sink",
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("sink") {
		cfg.Export.Sink = c.String("sink")
	}
	if c.IsSet("path") {
		cfg.Export.Path = c.String("path")
	}
	if err := validate(cfg); err != nil {
		return err
	}

	db, store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sink, err := export.OpenSink(cfg.Export.Sink, cfg.Export.Path)
	if err != nil {
		return err
	}
	defer sink.Close()

	exporter := export.New(store, directory.NewClient(cfg.Directory), sink, nil)
	summary, runErr := exporter.Run(c.Context)

	// records go to stdout with the stdout sink, so the summary goes to stderr
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	return runErr
}
