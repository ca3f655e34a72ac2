// Package payload decodes the type-specific bodies of archived events.
//
// Each decoder validates the fields its event kind cannot do without and
// returns ErrMalformed (wrapped) otherwise, so reducers can skip the event.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformed marks a payload that does not match the shape of its type.
var ErrMalformed = errors.New("malformed payload")

// Member is a conversation member as listed in a creation event.
type Member struct {
	ID uuid.UUID `json:"id"`
}

// Conversation is the conversation object embedded in create/rename events.
type Conversation struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Creator uuid.UUID `json:"creator"`
	Members []Member  `json:"members"`
}

// SystemMessage is the body of conversation.* (non otr) events.
type SystemMessage struct {
	ID           uuid.UUID     `json:"id"`
	Type         string        `json:"type"`
	ConvID       uuid.UUID     `json:"convId"`
	From         uuid.UUID     `json:"from"`
	Time         string        `json:"time"`
	Users        []uuid.UUID   `json:"users"`
	Conversation *Conversation `json:"conversation"`
}

// MessageBase holds the fields shared by every otr message payload.
type MessageBase struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	Time           string    `json:"time"`
}

// TextMessage is the body of new-text events.
type TextMessage struct {
	MessageBase
	Text string `json:"text"`
}

// EditedTextMessage is the body of edit-text events.
type EditedTextMessage struct {
	MessageBase
	ReplacingMessageID uuid.UUID `json:"replacingMessageId"`
	Text               string    `json:"text"`
}

// DeletedTextMessage is the body of delete-text events.
type DeletedTextMessage struct {
	MessageBase
	DeletedMessageID uuid.UUID `json:"deletedMessageId"`
}

// MediaMessage is the body of new-image, new-attachment, new-audio and
// new-video events. Only the asset reference is kept.
type MediaMessage struct {
	MessageBase
	MimeType   string `json:"mimeType"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	AssetKey   string `json:"assetKey"`
	AssetToken string `json:"assetToken"`
}

// Label is the one-line text used wherever the asset itself is not shown.
func (m *MediaMessage) Label() string {
	switch {
	case m.MimeType != "" && m.Name != "":
		return fmt.Sprintf("[%s] %s", m.MimeType, m.Name)
	case m.MimeType != "":
		return fmt.Sprintf("[%s]", m.MimeType)
	default:
		return m.Name
	}
}

// DecodeSystem decodes a system message. The conversation object is optional
// here; handlers that need it check for nil themselves.
func DecodeSystem(raw json.RawMessage) (*SystemMessage, error) {
	var msg SystemMessage
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeBase decodes only the fields shared by every otr message payload.
func DecodeBase(raw json.RawMessage) (*MessageBase, error) {
	var msg MessageBase
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeText decodes a new-text payload.
func DecodeText(raw json.RawMessage) (*TextMessage, error) {
	var msg TextMessage
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeEdit decodes an edit-text payload.
func DecodeEdit(raw json.RawMessage) (*EditedTextMessage, error) {
	var msg EditedTextMessage
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeDelete decodes a delete-text payload. The deleted message id is
// required.
func DecodeDelete(raw json.RawMessage) (*DeletedTextMessage, error) {
	var msg DeletedTextMessage
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.DeletedMessageID == uuid.Nil {
		return nil, fmt.Errorf("%w: deletedMessageId missing", ErrMalformed)
	}
	return &msg, nil
}

// DecodeMedia decodes any of the asset-carrying message payloads.
func DecodeMedia(raw json.RawMessage) (*MediaMessage, error) {
	var msg MediaMessage
	if err := unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
