// Package transcript folds a conversation's event log into a readable
// transcript.
package transcript

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/pkg/models"
)

// MessageLookup is the point lookup used to recover the text of deleted
// messages. events.Reader satisfies it.
type MessageLookup interface {
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Event, error)
}

// Pass carries the state that lives exactly as long as one reduction: the
// identity cache and the log used for cross references. Build a new Pass for
// every transcript; never reuse one across conversations or requests.
type Pass struct {
	Identities *directory.Cache
	Lookup     MessageLookup
}

// NewPass returns a pass with a fresh identity cache in front of dir.
func NewPass(dir directory.Directory, lookup MessageLookup) *Pass {
	return &Pass{
		Identities: directory.NewCache(dir),
		Lookup:     lookup,
	}
}

// errSkip makes a handler drop an event on purpose without it being counted
// as malformed.
var errSkip = errors.New("skip event")

type state struct {
	pass *Pass
	doc  *models.TranscriptDocument
}

type handler func(ctx context.Context, s *state, e *models.Event) error

var handlers map[models.EventType]handler

func init() {
	handlers = map[models.EventType]handler{
		models.EventConversationCreate: onCreate,
		models.EventConversationRename: onRename,
		models.EventNewText:            onText,
		models.EventEditText:           onEdit,
		models.EventDeleteText:         onDelete,
		models.EventNewImage:           onMedia("image"),
		models.EventNewAttachment:      onMedia("attachment"),
		models.EventNewAudio:           onMedia("audio"),
		models.EventNewVideo:           onMedia("video"),
		models.EventCall:               onCall,
		models.EventMemberJoin:         onMember("added"),
		models.EventMemberLeave:        onMember("removed"),
	}
}

// Reduce folds events, in the order given, into a transcript document. It
// never fails: events that are unknown or cannot be decoded are logged and
// left out, and everything else is kept.
func Reduce(ctx context.Context, pass *Pass, events []*models.Event) *models.TranscriptDocument {
	s := &state{
		pass: pass,
		doc:  &models.TranscriptDocument{Entries: make([]models.TranscriptEntry, 0, len(events))},
	}
	if len(events) > 0 {
		s.doc.ConversationID = events[0].ConversationID
	}

	logger := zerolog.Ctx(ctx)
	for _, e := range events {
		h, ok := handlers[e.Type]
		if !ok {
			logger.Debug().
				Int64("event_id", e.EventID).
				Str("type", string(e.Type)).
				Msg("Skipping unsupported event type")
			continue
		}

		if err := h(ctx, s, e); err != nil {
			ev := logger.Warn()
			if errors.Is(err, errSkip) {
				ev = logger.Info()
			}
			ev.Err(err).
				Str("conversation_id", e.ConversationID.String()).
				Int64("event_id", e.EventID).
				Str("type", string(e.Type)).
				Msg("Skipping event")
		}
	}
	return s.doc
}

func (s *state) note(at string, author models.Identity, eventType models.EventType, text string) {
	s.doc.Entries = append(s.doc.Entries, models.TranscriptEntry{
		Kind:              models.EntrySystemNote,
		Timestamp:         at,
		AuthorID:          author.UserID,
		AuthorDisplayName: author.DisplayName,
		Text:              text,
		EventType:         eventType,
	})
}

func (s *state) message(entry models.TranscriptEntry) {
	entry.Kind = models.EntryMessage
	s.doc.Entries = append(s.doc.Entries, entry)
}
