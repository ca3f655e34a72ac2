package events

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalhold/pkg/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a threadsafe in-memory event log for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	events  []*models.Event
	created map[int64]time.Time
	nextID  int64
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		created: make(map[int64]time.Time),
		now:     time.Now,
	}
}

// Insert appends a copy of event and assigns its EventID.
func (s *MemoryStore) Insert(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	event.EventID = s.nextID
	event.Exported = false

	cp := *event
	s.events = append(s.events, &cp)
	s.created[cp.EventID] = s.now()
	return nil
}

func (s *MemoryStore) ListAscending(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error) {
	return s.filter(func(e *models.Event) bool { return e.ConversationID == conversationID }), nil
}

func (s *MemoryStore) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Event, error) {
	if messageID == uuid.Nil {
		return nil, ErrNotFound
	}
	found := s.filter(func(e *models.Event) bool { return e.MessageID == messageID })
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (s *MemoryStore) ListUnexported(ctx context.Context) ([]*models.Event, error) {
	seen := make(map[uuid.UUID]bool)
	return s.filter(func(e *models.Event) bool {
		if e.Exported || seen[e.ConversationID] {
			return false
		}
		seen[e.ConversationID] = true
		return true
	}), nil
}

func (s *MemoryStore) ListUnexportedDetail(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error) {
	return s.filter(func(e *models.Event) bool {
		return e.ConversationID == conversationID && !e.Exported
	}), nil
}

func (s *MemoryStore) MarkExported(ctx context.Context, eventID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.EventID == eventID && !e.Exported {
			e.Exported = true
			return 1, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[uuid.UUID]*models.Conversation)
	order := make([]*models.Conversation, 0)
	for _, e := range s.events {
		c, ok := byID[e.ConversationID]
		if !ok {
			c = &models.Conversation{ConversationID: e.ConversationID}
			byID[e.ConversationID] = c
			order = append(order, c)
		}
		c.EventCount++
		if !e.Exported {
			c.Pending++
		}
		if at := s.created[e.EventID]; at.After(c.LastEventAt) {
			c.LastEventAt = at
		}
		if name := conversationName(e); name != "" {
			c.Name = name
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].LastEventAt.After(order[j].LastEventAt)
	})
	return order, nil
}

func (s *MemoryStore) filter(keep func(*models.Event) bool) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Event, 0)
	for _, e := range s.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

func conversationName(e *models.Event) string {
	if e.Type != models.EventConversationCreate && e.Type != models.EventConversationRename {
		return ""
	}
	var body struct {
		Conversation *struct {
			Name string `json:"name"`
		} `json:"conversation"`
	}
	if err := json.Unmarshal(e.Payload, &body); err != nil || body.Conversation == nil {
		return ""
	}
	return body.Conversation.Name
}
