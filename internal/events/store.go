// Package events is the archive's event log: the ordered, per-conversation
// record of everything observed from the messaging backend.
package events

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/legalhold/pkg/models"
)

// ErrNotFound is returned by point lookups that match no event.
var ErrNotFound = errors.New("event not found")

// Reader is the read side used by transcript passes.
type Reader interface {
	// ListAscending returns every event of a conversation in eventId order.
	ListAscending(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error)
	// GetByMessageID returns the earliest event carrying messageID, or
	// ErrNotFound.
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Event, error)
}

// ExportLog is the slice of the log an export run works against.
type ExportLog interface {
	Reader
	// ListUnexported returns one representative event per conversation that
	// still has unexported events.
	ListUnexported(ctx context.Context) ([]*models.Event, error)
	// ListUnexportedDetail returns the unexported events of a conversation in
	// eventId order.
	ListUnexportedDetail(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error)
	// MarkExported flips the exported flag of one event and reports how many
	// rows changed: 0 means another run got there first.
	MarkExported(ctx context.Context, eventID int64) (int64, error)
}

// Store is the full event log, including the ingestion side.
type Store interface {
	ExportLog
	// Insert appends an event and assigns its EventID.
	Insert(ctx context.Context, event *models.Event) error
	// ListConversations returns one index row per archived conversation,
	// most recently active first.
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
}
