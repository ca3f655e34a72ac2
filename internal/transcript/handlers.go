package transcript

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/legalhold/internal/payload"
	"github.com/legalhold/pkg/models"
)

func onCreate(ctx context.Context, s *state, e *models.Event) error {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return err
	}
	if msg.Conversation == nil {
		return fmt.Errorf("%w: creation event without conversation", errSkip)
	}

	ids := s.pass.Identities
	members := make([]string, 0, len(msg.Conversation.Members))
	for _, m := range msg.Conversation.Members {
		members = append(members, ids.Name(ctx, m.ID))
	}

	creator := msg.Conversation.Creator
	if creator == uuid.Nil {
		creator = msg.From
	}
	author := ids.Resolve(ctx, creator)

	s.doc.ConversationName = msg.Conversation.Name
	s.note(When(msg.Time, e), author, e.Type, CreatedNote(author.DisplayName, msg.Conversation.Name, members))
	return nil
}

func onRename(ctx context.Context, s *state, e *models.Event) error {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return err
	}
	if msg.Conversation == nil {
		return fmt.Errorf("%w: rename without conversation", payload.ErrMalformed)
	}

	author := s.pass.Identities.Resolve(ctx, msg.From)
	s.doc.ConversationName = msg.Conversation.Name
	s.note(When(msg.Time, e), author, e.Type, RenamedNote(author.DisplayName, msg.Conversation.Name))
	return nil
}

func onText(ctx context.Context, s *state, e *models.Event) error {
	msg, err := payload.DecodeText(e.Payload)
	if err != nil {
		return err
	}

	author := s.pass.Identities.Resolve(ctx, msg.UserID)
	s.message(models.TranscriptEntry{
		Timestamp:         When(msg.Time, e),
		AuthorID:          author.UserID,
		AuthorDisplayName: author.DisplayName,
		Text:              msg.Text,
		MessageID:         MessageID(msg.MessageID, e),
		EventType:         e.Type,
	})
	return nil
}

func onEdit(ctx context.Context, s *state, e *models.Event) error {
	msg, err := payload.DecodeEdit(e.Payload)
	if err != nil {
		return err
	}

	author := s.pass.Identities.Resolve(ctx, msg.UserID)
	s.note(When(msg.Time, e), author, e.Type, EditedNote(author.DisplayName, msg.Text))
	return nil
}

func onDelete(ctx context.Context, s *state, e *models.Event) error {
	msg, err := payload.DecodeDelete(e.Payload)
	if err != nil {
		return err
	}

	author := s.pass.Identities.Resolve(ctx, msg.UserID)
	original := OriginalText(ctx, s.pass.Lookup, msg.DeletedMessageID)
	s.note(When(msg.Time, e), author, e.Type, DeletedNote(author.DisplayName, original))
	return nil
}

func onMedia(kind string) handler {
	return func(ctx context.Context, s *state, e *models.Event) error {
		msg, err := payload.DecodeMedia(e.Payload)
		if err != nil {
			return err
		}

		author := s.pass.Identities.Resolve(ctx, msg.UserID)
		s.message(models.TranscriptEntry{
			Timestamp:         When(msg.Time, e),
			AuthorID:          author.UserID,
			AuthorDisplayName: author.DisplayName,
			Text:              msg.Label(),
			MessageID:         MessageID(msg.MessageID, e),
			EventType:         e.Type,
			Media: &models.MediaRef{
				Kind:       kind,
				AssetKey:   msg.AssetKey,
				AssetToken: msg.AssetToken,
				MimeType:   msg.MimeType,
				Name:       msg.Name,
				Size:       msg.Size,
			},
		})
		return nil
	}
}

func onCall(ctx context.Context, s *state, e *models.Event) error {
	call, err := payload.DecodeCall(e.Payload)
	if err != nil {
		return err
	}

	author := s.pass.Identities.Resolve(ctx, call.UserID)
	s.note(When(call.Time, e), author, e.Type, CalledNote(author.DisplayName, call.Signal.Type))
	return nil
}

func onMember(verb string) handler {
	return func(ctx context.Context, s *state, e *models.Event) error {
		msg, err := payload.DecodeSystem(e.Payload)
		if err != nil {
			return err
		}

		ids := s.pass.Identities
		actor := ids.Resolve(ctx, msg.From)
		at := When(msg.Time, e)
		for _, userID := range msg.Users {
			s.note(at, actor, e.Type, MemberNote(actor.DisplayName, verb, ids.Name(ctx, userID)))
		}
		return nil
	}
}
