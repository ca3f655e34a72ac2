package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/payload"
	"github.com/legalhold/internal/transcript"
	"github.com/legalhold/pkg/models"
)

// run is the state of one conversation's export pass.
type run struct {
	conversationID uuid.UUID
	identities     *directory.Cache
	lookup         transcript.MessageLookup

	name         string
	participants []models.Identity
	uniques      map[string]bool
	summary      Summary
}

// dedupKey is the logical identity of an event. Message kinds use the
// payload messageId, system kinds the system message id; the prefixes keep
// the two id spaces apart. Events carrying neither fall back to the storage
// id, which only guards against the same row being processed twice.
func dedupKey(e *models.Event) string {
	if e.Type.IsMessage() {
		if base, err := payload.DecodeBase(e.Payload); err == nil && base.MessageID != uuid.Nil {
			return "msg:" + base.MessageID.String()
		}
		if e.MessageID != uuid.Nil {
			return "msg:" + e.MessageID.String()
		}
	} else if msg, err := payload.DecodeSystem(e.Payload); err == nil && msg.ID != uuid.Nil {
		return "sys:" + msg.ID.String()
	}
	return fmt.Sprintf("evt:%d", e.EventID)
}

// prime replays an event exported by an earlier run in its place in the
// history: it claims its dedup key and applies its effect on name and
// membership, without emitting anything.
func (r *run) prime(ctx context.Context, e *models.Event) {
	r.uniques[dedupKey(e)] = true

	switch e.Type {
	case models.EventConversationCreate:
		if msg, err := payload.DecodeSystem(e.Payload); err == nil && msg.Conversation != nil {
			r.name = msg.Conversation.Name
			for _, m := range msg.Conversation.Members {
				r.join(ctx, m.ID)
			}
		}
	case models.EventConversationRename:
		if msg, err := payload.DecodeSystem(e.Payload); err == nil && msg.Conversation != nil {
			r.name = msg.Conversation.Name
		}
	case models.EventMemberJoin:
		if msg, err := payload.DecodeSystem(e.Payload); err == nil {
			for _, id := range msg.Users {
				r.join(ctx, id)
			}
		}
	case models.EventMemberLeave:
		if msg, err := payload.DecodeSystem(e.Payload); err == nil {
			for _, id := range msg.Users {
				r.leave(id)
			}
		}
	}
}

// join adds a participant unless already present.
func (r *run) join(ctx context.Context, userID uuid.UUID) {
	for _, p := range r.participants {
		if p.UserID == userID {
			return
		}
	}
	r.participants = append(r.participants, r.identities.Resolve(ctx, userID))
}

func (r *run) leave(userID uuid.UUID) {
	kept := r.participants[:0]
	for _, p := range r.participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	r.participants = kept
}

// stamp fills the conversation fields of a record with the current state.
func (r *run) stamp(record *models.ExportRecord) {
	record.ConversationID = r.conversationID
	record.ConversationName = r.name
	record.Participants = make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		record.Participants = append(record.Participants, p.DisplayName)
	}
}

func (r *run) names(ctx context.Context, ids []uuid.UUID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(r.identities.Name(ctx, id))
		sb.WriteString(",")
	}
	return sb.String()
}
