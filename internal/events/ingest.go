package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/legalhold/pkg/models"
)

// Inserter appends events to the log.
type Inserter interface {
	Insert(ctx context.Context, event *models.Event) error
}

const maxIngestLine = 4 << 20

// Ingest reads one JSON event per line from r and appends each to dst in
// file order. Blank lines are ignored. The store assigns event ids, so any
// eventId or exported value in the input is discarded. An otr message event
// without a top-level messageId takes it from its payload.
func Ingest(ctx context.Context, dst Inserter, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxIngestLine)

	count, line := 0, 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		event, err := decodeIngestLine(raw)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if err := dst.Insert(ctx, event); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read events: %w", err)
	}

	log.Info().Int("events", count).Msg("Ingested events")
	return count, nil
}

// ingestLine shadows the event's messageId so that "" reads as absent.
type ingestLine struct {
	models.Event
	MessageID string `json:"messageId"`
}

func decodeIngestLine(raw []byte) (*models.Event, error) {
	var line ingestLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	event := line.Event
	if id := strings.TrimSpace(line.MessageID); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid messageId %q: %w", id, err)
		}
		event.MessageID = parsed
	}
	if event.ConversationID == uuid.Nil {
		return nil, fmt.Errorf("event has no conversationId")
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}

	event.EventID = 0
	event.Exported = false

	if event.MessageID == uuid.Nil && event.Type.IsMessage() && len(event.Payload) > 0 {
		var base struct {
			MessageID string `json:"messageId"`
		}
		if json.Unmarshal(event.Payload, &base) == nil {
			if parsed, err := uuid.Parse(base.MessageID); err == nil {
				event.MessageID = parsed
			}
		}
	}
	return &event, nil
}
