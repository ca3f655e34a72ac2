package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/events"
)

// IngestCommand returns the command that appends JSON-lines events to the log.
func IngestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Append events from JSON-lines files to the event log",
		ArgsUsage: "<file>... (use - for stdin)",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("expected at least one input file", 2)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, store, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			total := 0
			for _, path := range c.Args().Slice() {
				n, err := ingestFile(c, store, path)
				total += n
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			fmt.Printf("Ingested %d events\n", total)
			return nil
		},
	}
}

func ingestFile(c *cli.Context, dst events.Inserter, path string) (int, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}
	return events.Ingest(c.Context, dst, r)
}
