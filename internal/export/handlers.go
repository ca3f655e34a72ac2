package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/legalhold/internal/payload"
	"github.com/legalhold/internal/transcript"
	"github.com/legalhold/pkg/models"
)

// handler applies an event to the run state and returns the record to emit.
// Each event type has its own handler; none of them delegates to another.
type handler func(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error)

var handlers = map[models.EventType]handler{
	models.EventConversationCreate: exportCreate,
	models.EventConversationRename: exportRename,
	models.EventMemberJoin:         exportJoin,
	models.EventMemberLeave:        exportLeave,
	models.EventNewText:            exportText,
	models.EventEditText:           exportEdit,
	models.EventDeleteText:         exportDelete,
	models.EventNewImage:           exportMedia,
	models.EventNewAttachment:      exportMedia,
	models.EventNewAudio:           exportMedia,
	models.EventNewVideo:           exportMedia,
	models.EventCall:               exportCall,
}

func systemRecord(ctx context.Context, r *run, msg *payload.SystemMessage, e *models.Event, text string) *models.ExportRecord {
	return &models.ExportRecord{
		Type:      models.RecordSystem,
		SentOn:    transcript.When(msg.Time, e),
		Sender:    r.identities.Name(ctx, msg.From),
		MessageID: msg.ID,
		Text:      text,
	}
}

func messageRecord(ctx context.Context, r *run, base payload.MessageBase, e *models.Event, kind models.ExportRecordType, text string) *models.ExportRecord {
	return &models.ExportRecord{
		Type:      kind,
		SentOn:    transcript.When(base.Time, e),
		Sender:    r.identities.Name(ctx, base.UserID),
		MessageID: transcript.MessageID(base.MessageID, e),
		Text:      text,
	}
}

func exportCreate(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return nil, err
	}
	if msg.Conversation == nil {
		return nil, fmt.Errorf("%w: creation event without conversation", payload.ErrMalformed)
	}

	conv := msg.Conversation
	r.name = conv.Name
	members := make([]uuid.UUID, 0, len(conv.Members))
	for _, m := range conv.Members {
		r.join(ctx, m.ID)
		members = append(members, m.ID)
	}

	creator := conv.Creator
	if creator == uuid.Nil {
		creator = msg.From
	}
	text := fmt.Sprintf("%s created conversation '%s' with: %s", r.identities.Name(ctx, creator), conv.Name, r.names(ctx, members))

	record := systemRecord(ctx, r, msg, e, text)
	record.Sender = r.identities.Name(ctx, creator)
	return record, nil
}

func exportRename(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return nil, err
	}
	if msg.Conversation == nil {
		return nil, fmt.Errorf("%w: rename without conversation", payload.ErrMalformed)
	}

	r.name = msg.Conversation.Name
	text := transcript.RenamedNote(r.identities.Name(ctx, msg.From), msg.Conversation.Name)
	return systemRecord(ctx, r, msg, e, text), nil
}

func exportJoin(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return nil, err
	}

	for _, id := range msg.Users {
		r.join(ctx, id)
	}
	text := fmt.Sprintf("%s added these participants: %s", r.identities.Name(ctx, msg.From), r.names(ctx, msg.Users))
	return systemRecord(ctx, r, msg, e, text), nil
}

func exportLeave(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeSystem(e.Payload)
	if err != nil {
		return nil, err
	}

	for _, id := range msg.Users {
		r.leave(id)
	}
	text := fmt.Sprintf("%s removed these participants: %s", r.identities.Name(ctx, msg.From), r.names(ctx, msg.Users))
	return systemRecord(ctx, r, msg, e, text), nil
}

func exportText(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeText(e.Payload)
	if err != nil {
		return nil, err
	}
	return messageRecord(ctx, r, msg.MessageBase, e, models.RecordMessage, msg.Text), nil
}

func exportEdit(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeEdit(e.Payload)
	if err != nil {
		return nil, err
	}
	text := transcript.EditedNote(r.identities.Name(ctx, msg.UserID), msg.Text)
	return messageRecord(ctx, r, msg.MessageBase, e, models.RecordSystem, text), nil
}

func exportDelete(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeDelete(e.Payload)
	if err != nil {
		return nil, err
	}
	original := transcript.OriginalText(ctx, r.lookup, msg.DeletedMessageID)
	text := transcript.DeletedNote(r.identities.Name(ctx, msg.UserID), original)
	return messageRecord(ctx, r, msg.MessageBase, e, models.RecordSystem, text), nil
}

func exportMedia(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	msg, err := payload.DecodeMedia(e.Payload)
	if err != nil {
		return nil, err
	}
	return messageRecord(ctx, r, msg.MessageBase, e, models.RecordMessage, msg.Label()), nil
}

func exportCall(ctx context.Context, r *run, e *models.Event) (*models.ExportRecord, error) {
	call, err := payload.DecodeCall(e.Payload)
	if err != nil {
		return nil, err
	}
	text := transcript.CalledNote(r.identities.Name(ctx, call.UserID), call.Signal.Type)
	return messageRecord(ctx, r, call.MessageBase, e, models.RecordSystem, text), nil
}
