package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMessageIDAlwaysEncoded(t *testing.T) {
	raw, err := json.Marshal(Event{ConversationID: uuid.New(), Type: EventConversationRename})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, uuid.Nil.String(), fields["messageId"])
}

func TestEventTypeFamilies(t *testing.T) {
	assert.True(t, EventCall.IsMessage())
	assert.False(t, EventMemberJoin.IsMessage())
	assert.True(t, EventNewVideo.IsMedia())
	assert.False(t, EventNewText.IsMedia())
}
