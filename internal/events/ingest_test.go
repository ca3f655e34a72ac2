package events

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalhold/pkg/models"
)

func TestIngest(t *testing.T) {
	ctx := context.Background()
	conv, msg := uuid.New(), uuid.New()
	input := strings.Join([]string{
		`{"conversationId":"` + conv.String() + `","type":"conversation.create","payload":{"id":"` + uuid.NewString() + `"},"time":"t1","eventId":99,"exported":true}`,
		``,
		`{"conversationId":"` + conv.String() + `","type":"conversation.otr-message-add.new-text","payload":{"messageId":"` + msg.String() + `","text":"hi"},"time":"t2"}`,
	}, "\n")

	s := NewMemoryStore()
	n, err := Ingest(ctx, s, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.ListAscending(ctx, conv)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEqual(t, int64(99), list[0].EventID)
	assert.False(t, list[0].Exported)
	assert.Equal(t, models.EventNewText, list[1].Type)
	assert.Equal(t, msg, list[1].MessageID)
}

func TestIngestReportsLine(t *testing.T) {
	conv := uuid.New()
	input := `{"conversationId":"` + conv.String() + `","type":"conversation.rename","payload":{}}` + "\n" +
		`{"type":"conversation.rename"}`

	s := NewMemoryStore()
	n, err := Ingest(context.Background(), s, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, n)
}

func TestIngestRejectsGarbage(t *testing.T) {
	_, err := Ingest(context.Background(), NewMemoryStore(), strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestIngestEmptyMessageIDIsAbsent(t *testing.T) {
	ctx := context.Background()
	conv := uuid.New()
	input := `{"conversationId":"` + conv.String() + `","messageId":"","type":"conversation.rename","payload":{"conversation":{"name":"Legal"}}}` + "\n" +
		`{"conversationId":"` + conv.String() + `","messageId":"","type":"conversation.otr-message-add.new-text","payload":{"messageId":"","text":"hi"}}`

	s := NewMemoryStore()
	n, err := Ingest(ctx, s, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.ListAscending(ctx, conv)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uuid.Nil, list[0].MessageID)
	assert.Equal(t, uuid.Nil, list[1].MessageID)
}

func TestIngestRejectsBadMessageID(t *testing.T) {
	conv := uuid.New()
	input := `{"conversationId":"` + conv.String() + `","messageId":"nope","type":"conversation.rename","payload":{}}`
	_, err := Ingest(context.Background(), NewMemoryStore(), strings.NewReader(input))
	assert.ErrorContains(t, err, "invalid messageId")
}
