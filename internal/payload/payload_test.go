package payload

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSystemWithConversation(t *testing.T) {
	creator := uuid.New()
	raw := json.RawMessage(`{
		"id": "` + uuid.NewString() + `",
		"type": "conversation.create",
		"from": "` + creator.String() + `",
		"time": "2024-01-02T03:04:05Z",
		"conversation": {"name": "Team", "creator": "` + creator.String() + `", "members": [{"id": "` + creator.String() + `"}]}
	}`)

	msg, err := DecodeSystem(raw)
	require.NoError(t, err)
	require.NotNil(t, msg.Conversation)
	assert.Equal(t, "Team", msg.Conversation.Name)
	assert.Equal(t, creator, msg.Conversation.Creator)
	assert.Len(t, msg.Conversation.Members, 1)
}

func TestDecodeSystemWithoutConversation(t *testing.T) {
	msg, err := DecodeSystem(json.RawMessage(`{"type": "conversation.create"}`))
	require.NoError(t, err)
	assert.Nil(t, msg.Conversation)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeText(json.RawMessage(`{"text": `))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeText(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeDeleteRequiresTarget(t *testing.T) {
	_, err := DecodeDelete(json.RawMessage(`{"userId": "` + uuid.NewString() + `"}`))
	assert.ErrorIs(t, err, ErrMalformed)

	target := uuid.New()
	msg, err := DecodeDelete(json.RawMessage(`{"deletedMessageId": "` + target.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, target, msg.DeletedMessageID)
}

func TestParseCallContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType string
		wantErr  bool
	}{
		{
			name:     "string content",
			content:  `"{\"version\":\"3.0\",\"type\":\"SETUP\",\"sessid\":\"abc\",\"resp\":false}"`,
			wantType: "SETUP",
		},
		{
			name:     "double escaped string content",
			content:  `"{\\\"version\\\":\\\"3.0\\\",\\\"type\\\":\\\"HANGUP\\\",\\\"sessid\\\":\\\"abc\\\"}"`,
			wantType: "HANGUP",
		},
		{
			name:     "embedded object",
			content:  `{"version":"3.0","type":"CANCEL","resp":true}`,
			wantType: "CANCEL",
		},
		{
			name:     "trailing comma repaired",
			content:  `"{\"type\":\"GROUPSTART\",}"`,
			wantType: "GROUPSTART",
		},
		{
			name:    "missing type",
			content: `"{\"version\":\"3.0\"}"`,
			wantErr: true,
		},
		{
			name:    "null content",
			content: `null`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, err := ParseCallContent(json.RawMessage(tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cc.Type)
		})
	}
}

func TestDecodeCall(t *testing.T) {
	user := uuid.New()
	raw := json.RawMessage(`{"messageId":"` + uuid.NewString() + `","userId":"` + user.String() + `","time":"t","content":"{\"type\":\"SETUP\"}"}`)

	call, err := DecodeCall(raw)
	require.NoError(t, err)
	assert.Equal(t, user, call.UserID)
	assert.Equal(t, "SETUP", call.Signal.Type)
}

func TestMediaLabel(t *testing.T) {
	assert.Equal(t, "[image/png] cat.png", (&MediaMessage{MimeType: "image/png", Name: "cat.png"}).Label())
	assert.Equal(t, "[audio/ogg]", (&MediaMessage{MimeType: "audio/ogg"}).Label())
	assert.Equal(t, "notes.txt", (&MediaMessage{Name: "notes.txt"}).Label())
}
