package repository

import (
	"context"
	"errors"
	"time"

	chat "resto-chat/internal/pkg/chat/application/domain"
)

// ErrConversationNotFound signals a lookup for a conversation id that does
// not exist.
var ErrConversationNotFound = errors.New("chat repository: conversation not found")

// ChatRepository defines persistence operations for conversations and
// messages. The staff-group uniqueness rule (one conversation per customer)
// is enforced at the store level, so GetOrCreateConversation stays correct
// under concurrent first messages without any in-process locking.
type ChatRepository interface {
	// GetOrCreateConversation returns the customer's staff-group
	// conversation, creating it lazily on first use. Idempotent.
	GetOrCreateConversation(ctx context.Context, customerID string) (*chat.Conversation, error)

	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// ListConversationSummaries returns every staff-group conversation with
	// its customer's name and phone, most recent activity first.
	ListConversationSummaries(ctx context.Context) ([]chat.ConversationSummary, error)

	// ListActiveCustomerIDs returns the customer id of every staff-group
	// conversation. Feeds the staff room backfill on admission.
	ListActiveCustomerIDs(ctx context.Context) ([]string, error)

	// SaveMessage persists a message letting the store assign id and
	// timestamp, and returns the stored row.
	SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error)

	CountMessages(ctx context.Context, conversationID string) (int64, error)

	// TouchConversation advances the conversation's last_message_at. Only
	// the message pipeline writes this, always right after SaveMessage.
	TouchConversation(ctx context.Context, conversationID string, lastMessageAt time.Time) error

	// ListMessages returns a page of messages ordered by sent_at ascending.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)
}
