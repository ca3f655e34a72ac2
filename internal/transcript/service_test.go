package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalhold/pkg/models"
)

type failingReader struct{}

func (failingReader) ListAscending(context.Context, uuid.UUID) ([]*models.Event, error) {
	return nil, errors.New("connection refused")
}

func (failingReader) GetByMessageID(context.Context, uuid.UUID) (*models.Event, error) {
	return nil, errors.New("connection refused")
}

func TestServiceTranscript(t *testing.T) {
	f := newFixture(t, "U1", "U2")
	f.create("Team", "U1", "U1", "U2")
	f.text("U2", "morning")

	doc, err := NewService(f.store, f.dir).Transcript(context.Background(), f.conv)
	require.NoError(t, err)
	assert.Equal(t, f.conv, doc.ConversationID)
	assert.Equal(t, "Team", doc.ConversationName)
	assert.Len(t, doc.Entries, 2)
}

func TestServiceTranscriptEmptyConversation(t *testing.T) {
	f := newFixture(t)
	doc, err := NewService(f.store, f.dir).Transcript(context.Background(), f.conv)
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
	assert.Equal(t, f.conv, doc.ConversationID)
}

func TestServiceTranscriptReaderFailure(t *testing.T) {
	doc, err := NewService(failingReader{}, &fakeDirectory{}).Transcript(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.Nil(t, doc)
}
