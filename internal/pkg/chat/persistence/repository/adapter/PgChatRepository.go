package adapter

import (
	"context"
	"errors"
	"time"

	chat "resto-chat/internal/pkg/chat/application/domain"
	repository "resto-chat/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

// GetOrCreateConversation relies on the partial unique index on
// (customer_id) WHERE is_staff_group: the INSERT silently loses the race and
// the follow-up SELECT picks up whichever row won.
func (r *PgChatRepository) GetOrCreateConversation(ctx context.Context, customerID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	c := chat.Conversation{IsStaffGroup: true, CustomerID: &customerID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (customer_id, is_staff_group)
		VALUES ($1::uuid, TRUE)
		ON CONFLICT (customer_id) WHERE is_staff_group DO NOTHING
		RETURNING id::text, created_at, last_message_at
	`, customerID).Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT id::text, created_at, last_message_at
		FROM chat.conversation
		WHERE customer_id = $1::uuid AND is_staff_group
	`, customerID).Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, customer_id::text, is_staff_group, created_at, last_message_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.CustomerID, &c.IsStaffGroup, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) ListConversationSummaries(ctx context.Context) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.customer_id::text, i.display_name, i.phone, c.created_at, c.last_message_at
		FROM chat.conversation c
		JOIN chat.identity i ON i.id = c.customer_id
		WHERE c.is_staff_group
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.ConversationSummary
	for rows.Next() {
		var s chat.ConversationSummary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.CustomerPhone, &s.CreatedAt, &s.LastMessageAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgChatRepository) ListActiveCustomerIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT customer_id::text
		FROM chat.conversation
		WHERE is_staff_group AND customer_id IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, body)
		VALUES ($1::uuid, $2::uuid, $3)
		RETURNING id::text, sent_at
	`, m.ConversationID, m.SenderID, m.Body).Scan(&m.ID, &m.SentAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgChatRepository) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}

	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat.message WHERE conversation_id = $1::uuid
	`, conversationID).Scan(&n)
	return n, err
}

func (r *PgChatRepository) TouchConversation(ctx context.Context, conversationID string, lastMessageAt time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}

	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation SET last_message_at = $2 WHERE id = $1::uuid
	`, conversationID, lastMessageAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrConversationNotFound
	}
	return nil
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, body, sent_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY sent_at ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
