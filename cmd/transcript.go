package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/render"
	"github.com/legalhold/internal/transcript"
	"github.com/legalhold/pkg/models"
)

// TranscriptCommand returns the command that renders one conversation.
func TranscriptCommand() *cli.Command {
	return &cli.Command{
		Name:      "transcript",
		Usage:     "Render the transcript of a conversation",
		ArgsUsage: "<conversationId>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: html, json or markdown",
				Value:   "html",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to `FILE` instead of stdout",
			},
		},
		Action: runTranscript,
	}
}

func runTranscript(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one conversation id", 2)
	}
	conversationID, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid conversation id: %w", err)
	}

	format := c.String("format")
	switch format {
	case "html", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	cfg, err := loadValidConfig(c)
	if err != nil {
		return err
	}

	db, store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := transcript.NewService(store, directory.NewClient(cfg.Directory))
	doc, err := svc.Transcript(c.Context, conversationID)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return writeTranscript(out, format, doc)
}

func writeTranscript(w io.Writer, format string, doc *models.TranscriptDocument) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "markdown":
		return render.TranscriptMarkdown(w, doc)
	default:
		return render.TranscriptHTML(w, doc)
	}
}
