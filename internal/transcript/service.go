package transcript

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/events"
	"github.com/legalhold/internal/logging"
	"github.com/legalhold/pkg/models"
)

// Service builds transcripts from the event log.
type Service struct {
	events events.Reader
	dir    directory.Directory
}

// NewService returns a transcript service.
func NewService(reader events.Reader, dir directory.Directory) *Service {
	return &Service{events: reader, dir: dir}
}

// Transcript runs one pass over a conversation. A failure to read the log
// fails the whole pass; nothing else does.
func (s *Service) Transcript(ctx context.Context, conversationID uuid.UUID) (*models.TranscriptDocument, error) {
	ctx, p := logging.StartPass(ctx, "transcript", conversationID)

	list, err := s.events.ListAscending(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list events for conversation %s: %w", conversationID, err)
	}

	pass := NewPass(s.dir, s.events)
	doc := Reduce(ctx, pass, list)
	doc.ConversationID = conversationID

	p.Finish(ctx, map[string]interface{}{
		"events":  len(list),
		"entries": len(doc.Entries),
		"lookups": pass.Identities.Lookups(),
	})
	return doc, nil
}
