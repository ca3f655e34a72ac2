package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType is the type tag of an archived conversation event. The set is
// open: the backend may deliver tags this build does not know about.
type EventType string

const (
	EventConversationCreate EventType = "conversation.create"
	EventConversationRename EventType = "conversation.rename"
	EventMemberJoin         EventType = "conversation.member-join"
	EventMemberLeave        EventType = "conversation.member-leave"

	EventNewText       EventType = "conversation.otr-message-add.new-text"
	EventEditText      EventType = "conversation.otr-message-add.edit-text"
	EventDeleteText    EventType = "conversation.otr-message-add.delete-text"
	EventNewImage      EventType = "conversation.otr-message-add.new-image"
	EventNewAttachment EventType = "conversation.otr-message-add.new-attachment"
	EventNewAudio      EventType = "conversation.otr-message-add.new-audio"
	EventNewVideo      EventType = "conversation.otr-message-add.new-video"
	EventCall          EventType = "conversation.otr-message-add.call"
)

const otrPrefix = "conversation.otr-message-add."

// IsMessage reports whether the tag belongs to the otr message family, whose
// payloads carry a messageId rather than a system message id.
func (t EventType) IsMessage() bool {
	return strings.HasPrefix(string(t), otrPrefix)
}

// IsMedia reports whether the tag is one of the asset-carrying message kinds.
func (t EventType) IsMedia() bool {
	switch t {
	case EventNewImage, EventNewAttachment, EventNewAudio, EventNewVideo:
		return true
	}
	return false
}

// Event is one immutable record observed from the messaging backend.
// EventID is assigned by the store and is the authoritative causal order
// within a conversation; Time is client supplied and may disagree with it.
type Event struct {
	ConversationID uuid.UUID       `json:"conversationId" db:"conversation_id"`
	EventID        int64           `json:"eventId" db:"event_id"`
	MessageID      uuid.UUID       `json:"messageId" db:"message_id"` // uuid.Nil when absent
	Type           EventType       `json:"type" db:"type"`
	Payload        json.RawMessage `json:"payload" db:"payload"`
	Time           string          `json:"time" db:"time"`
	Exported       bool            `json:"exported" db:"exported"`
}

// Identity is a resolved display identity for a user.
type Identity struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	Handle      string    `json:"handle,omitempty"`
	Name        string    `json:"name,omitempty"`
	Placeholder bool      `json:"placeholder,omitempty"` // directory lookup failed
	AssetKeys   []string  `json:"assetKeys,omitempty"`
}

// EntryKind distinguishes rendered messages from system notes.
type EntryKind string

const (
	EntryMessage    EntryKind = "message"
	EntrySystemNote EntryKind = "system-note"
)

// MediaRef points at an asset without inlining its content.
type MediaRef struct {
	Kind       string `json:"kind"` // image | attachment | audio | video
	AssetKey   string `json:"assetKey,omitempty"`
	AssetToken string `json:"assetToken,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	Name       string `json:"name,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// TranscriptEntry is one line of a transcript.
type TranscriptEntry struct {
	Kind              EntryKind `json:"kind"`
	Timestamp         string    `json:"timestamp"`
	AuthorID          uuid.UUID `json:"authorId"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	Text              string    `json:"text"`
	MessageID         uuid.UUID `json:"messageId"`
	EventType         EventType `json:"eventType"`
	Media             *MediaRef `json:"media,omitempty"`
}

// TranscriptDocument is the output of one transcript pass.
type TranscriptDocument struct {
	ConversationID   uuid.UUID         `json:"conversationId"`
	ConversationName string            `json:"conversationName"`
	Entries          []TranscriptEntry `json:"entries"`
}

// ExportRecordType is the coarse kind of an exported record.
type ExportRecordType string

const (
	RecordMessage ExportRecordType = "message"
	RecordSystem  ExportRecordType = "system"
)

// ExportRecord is one externally shippable line. Field names match the schema
// the downstream log/search index was built against.
type ExportRecord struct {
	Type             ExportRecordType `json:"type"`
	ConversationID   uuid.UUID        `json:"conversationID"`
	ConversationName string           `json:"conversationName"`
	Participants     []string         `json:"participants"`
	SentOn           string           `json:"sent_on"`
	Sender           string           `json:"sender"`
	MessageID        uuid.UUID        `json:"messageID"`
	Text             string           `json:"text"`
}

// Conversation is a row of the archived conversation index.
type Conversation struct {
	ConversationID uuid.UUID `json:"conversationId" db:"conversation_id"`
	Name           string    `json:"name" db:"name"`
	EventCount     int64     `json:"eventCount" db:"event_count"`
	Pending        int64     `json:"pending" db:"pending"`
	LastEventAt    time.Time `json:"lastEventAt" db:"last_event_at"`
}
