package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalhold/internal/directory"
	"github.com/legalhold/internal/events"
	"github.com/legalhold/internal/payload"
	"github.com/legalhold/pkg/models"
)

type fakeDirectory struct {
	users map[uuid.UUID]*directory.User
	fail  bool
}

func (f *fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (*directory.User, error) {
	if f.fail {
		return nil, errors.New("directory unavailable")
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, directory.ErrUserNotFound
}

type fixture struct {
	t     *testing.T
	store *events.MemoryStore
	dir   *fakeDirectory
	conv  uuid.UUID
	users map[string]uuid.UUID
}

func newFixture(t *testing.T, handles ...string) *fixture {
	f := &fixture{
		t:     t,
		store: events.NewMemoryStore(),
		dir:   &fakeDirectory{users: make(map[uuid.UUID]*directory.User)},
		conv:  uuid.New(),
		users: make(map[string]uuid.UUID),
	}
	for _, h := range handles {
		id := uuid.New()
		f.users[h] = id
		f.dir.users[id] = &directory.User{ID: id, Handle: h}
	}
	return f
}

func (f *fixture) add(typ models.EventType, msgID uuid.UUID, body interface{}) *models.Event {
	f.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(f.t, err)
	e := &models.Event{ConversationID: f.conv, MessageID: msgID, Type: typ, Payload: raw, Time: "2024-03-01T10:00:00Z"}
	require.NoError(f.t, f.store.Insert(context.Background(), e))
	return e
}

func (f *fixture) create(name, creator string, members ...string) *models.Event {
	conv := &payload.Conversation{ID: f.conv, Name: name, Creator: f.users[creator]}
	for _, m := range members {
		conv.Members = append(conv.Members, payload.Member{ID: f.users[m]})
	}
	return f.add(models.EventConversationCreate, uuid.Nil, payload.SystemMessage{
		ID: uuid.New(), Type: string(models.EventConversationCreate), ConvID: f.conv,
		From: f.users[creator], Time: "2024-03-01T10:00:00Z", Conversation: conv,
	})
}

func (f *fixture) members(typ models.EventType, actor string, affected ...string) *models.Event {
	msg := payload.SystemMessage{ID: uuid.New(), Type: string(typ), ConvID: f.conv, From: f.users[actor]}
	for _, a := range affected {
		msg.Users = append(msg.Users, f.users[a])
	}
	return f.add(typ, uuid.Nil, msg)
}

func (f *fixture) text(author, text string) uuid.UUID {
	id := uuid.New()
	f.add(models.EventNewText, id, payload.TextMessage{
		MessageBase: payload.MessageBase{MessageID: id, ConversationID: f.conv, UserID: f.users[author]},
		Text:        text,
	})
	return id
}

func (f *fixture) edit(author string, target uuid.UUID, text string) {
	id := uuid.New()
	f.add(models.EventEditText, id, payload.EditedTextMessage{
		MessageBase:        payload.MessageBase{MessageID: id, UserID: f.users[author]},
		ReplacingMessageID: target,
		Text:               text,
	})
}

func (f *fixture) delete(author string, target uuid.UUID) {
	id := uuid.New()
	f.add(models.EventDeleteText, id, payload.DeletedTextMessage{
		MessageBase:      payload.MessageBase{MessageID: id, UserID: f.users[author]},
		DeletedMessageID: target,
	})
}

func (f *fixture) reduce() *models.TranscriptDocument {
	f.t.Helper()
	list, err := f.store.ListAscending(context.Background(), f.conv)
	require.NoError(f.t, err)
	return Reduce(context.Background(), NewPass(f.dir, f.store), list)
}

func texts(doc *models.TranscriptDocument) []string {
	out := make([]string, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		out = append(out, e.Text)
	}
	return out
}

func TestReduceCreateScenario(t *testing.T) {
	f := newFixture(t, "U1", "U2")
	f.create("Team", "U1", "U1", "U2")

	doc := f.reduce()
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Team", doc.ConversationName)
	assert.Equal(t, models.EntrySystemNote, doc.Entries[0].Kind)
	assert.Equal(t, "U1 created conversation Team with: U1, U2", doc.Entries[0].Text)
	assert.Equal(t, "U1", doc.Entries[0].AuthorDisplayName)
}

func TestReduceCreateWithoutConversationIsSkipped(t *testing.T) {
	f := newFixture(t, "U1")
	f.add(models.EventConversationCreate, uuid.Nil, payload.SystemMessage{ID: uuid.New(), From: f.users["U1"]})
	f.text("U1", "still here")

	doc := f.reduce()
	assert.Equal(t, []string{"still here"}, texts(doc))
	assert.Empty(t, doc.ConversationName)
}

func TestReduceOrderingAndDeterminism(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.create("Team", "alice", "alice", "bob")
	first := f.text("alice", "hi")
	f.members(models.EventMemberJoin, "alice", "carol")
	f.edit("alice", first, "hello")
	f.add(models.EventConversationRename, uuid.Nil, payload.SystemMessage{
		ID: uuid.New(), From: f.users["bob"], Conversation: &payload.Conversation{Name: "Legal"},
	})
	f.text("carol", "joined")
	f.members(models.EventMemberLeave, "bob", "bob")

	doc := f.reduce()
	assert.Equal(t, []string{
		"alice created conversation Team with: alice, bob",
		"hi",
		"alice added carol",
		"alice edited: hello",
		"bob renamed the conversation to Legal",
		"joined",
		"bob removed bob",
	}, texts(doc))
	assert.Equal(t, "Legal", doc.ConversationName)

	again := f.reduce()
	if diff := cmp.Diff(doc, again); diff != "" {
		t.Errorf("reducing twice differs (-first +second):\n%s", diff)
	}
}

func TestReduceUnknownTypesDoNotChangeOutput(t *testing.T) {
	withUnknown := newFixture(t, "alice")
	withUnknown.create("Team", "alice", "alice")
	withUnknown.add("conversation.typing", uuid.Nil, map[string]string{"status": "started"})
	withUnknown.text("alice", "hi")
	withUnknown.add("conversation.otr-message-add.new-reaction", uuid.New(), map[string]string{"emoji": "+1"})

	doc := withUnknown.reduce()

	// same conversation without the unknown events
	plain := &fixture{t: t, store: events.NewMemoryStore(), dir: withUnknown.dir, conv: withUnknown.conv, users: withUnknown.users}
	plain.create("Team", "alice", "alice")
	plain.text("alice", "hi")

	ignoreIDs := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".MessageID"
	}, cmp.Ignore())
	if diff := cmp.Diff(plain.reduce(), doc, ignoreIDs); diff != "" {
		t.Errorf("unknown events changed the transcript (-want +got):\n%s", diff)
	}
}

func TestReduceMalformedPayloadIsSkipped(t *testing.T) {
	f := newFixture(t, "alice")
	f.text("alice", "one")
	bad := &models.Event{ConversationID: f.conv, Type: models.EventNewText, Payload: json.RawMessage(`{"text": 42`)}
	require.NoError(t, f.store.Insert(context.Background(), bad))
	f.text("alice", "two")

	assert.Equal(t, []string{"one", "two"}, texts(f.reduce()))
}

func TestReduceDeleteResolvesOriginal(t *testing.T) {
	f := newFixture(t, "alice")
	m := f.text("alice", "hi")
	f.delete("alice", m)

	doc := f.reduce()
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "alice deleted text: 'hi'", doc.Entries[1].Text)
	assert.Contains(t, doc.Entries[1].Text, "hi")
}

func TestReduceDeleteUnresolvedRendersEmpty(t *testing.T) {
	f := newFixture(t, "alice")
	f.delete("alice", uuid.New())

	doc := f.reduce()
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "alice deleted text: ''", doc.Entries[0].Text)
}

func TestReduceDeleteOfNonTextRendersEmpty(t *testing.T) {
	f := newFixture(t, "alice")
	img := uuid.New()
	f.add(models.EventNewImage, img, payload.MediaMessage{
		MessageBase: payload.MessageBase{MessageID: img, UserID: f.users["alice"]},
		MimeType:    "image/png",
		Name:        "cat.png",
	})
	f.delete("alice", img)

	doc := f.reduce()
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "alice deleted text: ''", doc.Entries[1].Text)
}

func TestReduceEditPreservesHistory(t *testing.T) {
	f := newFixture(t, "alice")
	m := f.text("alice", "hi")
	f.edit("alice", m, "hello")

	doc := f.reduce()
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, models.EntryMessage, doc.Entries[0].Kind)
	assert.Equal(t, "hi", doc.Entries[0].Text)
	assert.Equal(t, m, doc.Entries[0].MessageID)
	assert.Equal(t, models.EntrySystemNote, doc.Entries[1].Kind)
	assert.Equal(t, "alice edited: hello", doc.Entries[1].Text)
}

func TestReduceMediaCarriesReference(t *testing.T) {
	f := newFixture(t, "alice")
	id := uuid.New()
	f.add(models.EventNewAttachment, id, payload.MediaMessage{
		MessageBase: payload.MessageBase{MessageID: id, UserID: f.users["alice"]},
		MimeType:    "application/pdf",
		Name:        "contract.pdf",
		Size:        2048,
		AssetKey:    "3-2-key",
		AssetToken:  "token",
	})

	doc := f.reduce()
	require.Len(t, doc.Entries, 1)
	entry := doc.Entries[0]
	assert.Equal(t, models.EntryMessage, entry.Kind)
	require.NotNil(t, entry.Media)
	assert.Equal(t, "attachment", entry.Media.Kind)
	assert.Equal(t, "3-2-key", entry.Media.AssetKey)
	assert.Equal(t, "[application/pdf] contract.pdf", entry.Text)
}

func TestReduceCall(t *testing.T) {
	f := newFixture(t, "alice")
	base := map[string]interface{}{"messageId": uuid.NewString(), "userId": f.users["alice"].String()}

	good := map[string]interface{}{"content": `{\"version\":\"3.0\",\"type\":\"SETUP\",\"sessid\":\"s1\",\"resp\":false}`}
	for k, v := range base {
		good[k] = v
	}
	f.add(models.EventCall, uuid.New(), good)

	broken := map[string]interface{}{"content": "not json at all {"}
	for k, v := range base {
		broken[k] = v
	}
	f.add(models.EventCall, uuid.New(), broken)

	assert.Equal(t, []string{"alice called: SETUP"}, texts(f.reduce()))
}

func TestReduceMembersOneNotePerUser(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	f.members(models.EventMemberJoin, "alice", "bob", "carol")
	f.members(models.EventMemberLeave, "alice", "carol")

	assert.Equal(t, []string{
		"alice added bob",
		"alice added carol",
		"alice removed carol",
	}, texts(f.reduce()))
}

func TestReduceDirectoryFailureUsesPlaceholders(t *testing.T) {
	f := newFixture(t, "alice")
	f.dir.fail = true
	f.text("alice", "hi")

	doc := f.reduce()
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "unknown ("+f.users["alice"].String()+")", doc.Entries[0].AuthorDisplayName)
}
