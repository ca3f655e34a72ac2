package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalhold/pkg/models"
)

func sampleDoc() *models.TranscriptDocument {
	return &models.TranscriptDocument{
		ConversationID:   uuid.New(),
		ConversationName: "Team",
		Entries: []models.TranscriptEntry{
			{Kind: models.EntrySystemNote, Timestamp: "t0", AuthorDisplayName: "U1", Text: "U1 created conversation Team with: U1, U2"},
			{Kind: models.EntryMessage, Timestamp: "t1", AuthorDisplayName: "U2", Text: "see **this** <script>alert(1)</script>"},
			{Kind: models.EntryMessage, Timestamp: "t2", AuthorDisplayName: "U2", Text: "[image/png] cat.png",
				Media: &models.MediaRef{Kind: "image", AssetKey: "3-1-key"}},
		},
	}
}

func TestTranscriptHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TranscriptHTML(&buf, sampleDoc()))
	html := buf.String()

	assert.Contains(t, html, "<title>Team</title>")
	assert.Contains(t, html, "U1 created conversation Team with: U1, U2")
	assert.Contains(t, html, "<strong>this</strong>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "image: [image/png] cat.png")
	assert.Contains(t, html, "3-1-key")
}

func TestTranscriptHTMLFallsBackToID(t *testing.T) {
	doc := &models.TranscriptDocument{ConversationID: uuid.New()}
	var buf bytes.Buffer
	require.NoError(t, TranscriptHTML(&buf, doc))
	assert.Contains(t, buf.String(), "<title>"+doc.ConversationID.String()+"</title>")
}

func TestTranscriptMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TranscriptMarkdown(&buf, sampleDoc()))
	md := buf.String()

	assert.True(t, strings.HasPrefix(md, "# Team\n"))
	assert.Contains(t, md, "_U1 created conversation Team with: U1, U2_ · t0")
	assert.Contains(t, md, "**U2** · t1")
}

func TestIndexHTML(t *testing.T) {
	named := &models.Conversation{ConversationID: uuid.New(), Name: "Legal", EventCount: 3, Pending: 1, LastEventAt: time.Date(2024, 2, 3, 4, 5, 0, 0, time.UTC)}
	unnamed := &models.Conversation{ConversationID: uuid.New(), EventCount: 1}

	var buf bytes.Buffer
	require.NoError(t, IndexHTML(&buf, []*models.Conversation{named, unnamed}))
	html := buf.String()

	assert.Contains(t, html, `href="/conv/`+named.ConversationID.String()+`"`)
	assert.Contains(t, html, ">Legal<")
	assert.Contains(t, html, "2024-02-03 04:05")
	assert.Contains(t, html, unnamed.ConversationID.String())

	buf.Reset()
	require.NoError(t, IndexHTML(&buf, nil))
	assert.Contains(t, buf.String(), "No conversations archived yet.")
}
