package events

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/legalhold/pkg/models"
)

//go:embed schema.sql
var schema string

const eventColumns = `event_id, conversation_id, message_id, type, payload, time, exported`

var _ Store = (*PostgresStore)(nil)

// PostgresStore is the Postgres-backed event log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the event table and its indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply event schema: %w", err)
	}
	return nil
}

// Insert appends an event and assigns its EventID.
func (s *PostgresStore) Insert(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO hold_events (conversation_id, message_id, type, payload, time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING event_id, exported
	`

	messageID := uuid.NullUUID{UUID: event.MessageID, Valid: event.MessageID != uuid.Nil}
	payload := string(event.Payload)
	if payload == "" {
		payload = "{}"
	}

	err := s.db.QueryRowContext(ctx, query,
		event.ConversationID,
		messageID,
		string(event.Type),
		payload,
		event.Time,
	).Scan(&event.EventID, &event.Exported)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ListAscending returns every event of a conversation in eventId order.
func (s *PostgresStore) ListAscending(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM hold_events
		WHERE conversation_id = $1
		ORDER BY event_id ASC`

	return s.query(ctx, query, conversationID)
}

// GetByMessageID returns the earliest event carrying messageID.
func (s *PostgresStore) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM hold_events
		WHERE message_id = $1
		ORDER BY event_id ASC
		LIMIT 1`

	event, err := scanEvent(s.db.QueryRowContext(ctx, query, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by message id: %w", err)
	}
	return event, nil
}

// ListUnexported returns the oldest unexported event of every conversation
// that has pending work.
func (s *PostgresStore) ListUnexported(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM (
			SELECT DISTINCT ON (conversation_id) ` + eventColumns + `
			FROM hold_events
			WHERE NOT exported
			ORDER BY conversation_id, event_id ASC
		) pending
		ORDER BY event_id ASC`

	return s.query(ctx, query)
}

// ListUnexportedDetail returns the unexported events of one conversation in
// eventId order.
func (s *PostgresStore) ListUnexportedDetail(ctx context.Context, conversationID uuid.UUID) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM hold_events
		WHERE conversation_id = $1 AND NOT exported
		ORDER BY event_id ASC`

	return s.query(ctx, query, conversationID)
}

// MarkExported flips the exported flag once. A second call, from this run or
// a concurrent one, affects zero rows.
func (s *PostgresStore) MarkExported(ctx context.Context, eventID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE hold_events SET exported = TRUE WHERE event_id = $1 AND NOT exported`,
		eventID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark event exported: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ListConversations returns the conversation index. The name is taken from
// the latest create or rename event that carries one.
func (s *PostgresStore) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	query := `
		SELECT e.conversation_id,
			COALESCE((
				SELECT n.payload->'conversation'->>'name'
				FROM hold_events n
				WHERE n.conversation_id = e.conversation_id
					AND n.type IN ('conversation.create', 'conversation.rename')
					AND n.payload->'conversation'->>'name' IS NOT NULL
				ORDER BY n.event_id DESC
				LIMIT 1
			), '') AS name,
			COUNT(*) AS event_count,
			COUNT(*) FILTER (WHERE NOT e.exported) AS pending,
			MAX(e.created_at) AS last_event_at
		FROM hold_events e
		GROUP BY e.conversation_id
		ORDER BY last_event_at DESC, e.conversation_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]*models.Conversation, 0)
	for rows.Next() {
		c := &models.Conversation{}
		if err := rows.Scan(&c.ConversationID, &c.Name, &c.EventCount, &c.Pending, &c.LastEventAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return convs, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		event     models.Event
		messageID uuid.NullUUID
		eventType string
		payload   []byte
	)
	if err := row.Scan(
		&event.EventID,
		&event.ConversationID,
		&messageID,
		&eventType,
		&payload,
		&event.Time,
		&event.Exported,
	); err != nil {
		return nil, err
	}
	if messageID.Valid {
		event.MessageID = messageID.UUID
	}
	event.Type = models.EventType(eventType)
	event.Payload = payload
	return &event, nil
}
