package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/legalhold/internal/events"
	"github.com/legalhold/internal/payload"
	"github.com/legalhold/pkg/models"
)

// CreatedNote renders a conversation creation.
func CreatedNote(creator, name string, members []string) string {
	return fmt.Sprintf("%s created conversation %s with: %s", creator, name, strings.Join(members, ", "))
}

// RenamedNote renders a conversation rename.
func RenamedNote(actor, name string) string {
	return fmt.Sprintf("%s renamed the conversation to %s", actor, name)
}

// EditedNote renders a text edit.
func EditedNote(actor, text string) string {
	return fmt.Sprintf("%s edited: %s", actor, text)
}

// DeletedNote renders a text deletion. original is empty when the deleted
// message could not be recovered.
func DeletedNote(actor, original string) string {
	return fmt.Sprintf("%s deleted text: '%s'", actor, original)
}

// CalledNote renders a call signal.
func CalledNote(actor, callType string) string {
	return fmt.Sprintf("%s called: %s", actor, callType)
}

// MemberNote renders one affected user of a join or leave.
func MemberNote(actor, verb, affected string) string {
	return fmt.Sprintf("%s %s %s", actor, verb, affected)
}

// OriginalText recovers the text of a deleted message by looking it up in the
// log. Any failure, including a target that is not a text message, yields "".
func OriginalText(ctx context.Context, lookup MessageLookup, messageID uuid.UUID) string {
	logger := zerolog.Ctx(ctx)
	if lookup == nil {
		return ""
	}

	target, err := lookup.GetByMessageID(ctx, messageID)
	if err != nil {
		ev := logger.Warn()
		if errors.Is(err, events.ErrNotFound) {
			ev = logger.Info()
		}
		ev.Err(err).
			Str("message_id", messageID.String()).
			Msg("Deleted message could not be resolved")
		return ""
	}

	switch target.Type {
	case models.EventNewText:
		if msg, err := payload.DecodeText(target.Payload); err == nil {
			return msg.Text
		}
	case models.EventEditText:
		if msg, err := payload.DecodeEdit(target.Payload); err == nil {
			return msg.Text
		}
	}

	logger.Info().
		Str("message_id", messageID.String()).
		Str("target_type", string(target.Type)).
		Msg("Deleted message is not a text message")
	return ""
}

// When returns the payload time, falling back to the event time.
func When(payloadTime string, e *models.Event) string {
	if payloadTime != "" {
		return payloadTime
	}
	return e.Time
}

// MessageID returns the payload message id, falling back to the event's.
func MessageID(id uuid.UUID, e *models.Event) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	return e.MessageID
}
