package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Messages are never
// edited or reordered; display order is SentAt ascending.
type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	Body           string    `db:"body"`
	SentAt         time.Time `db:"sent_at"`
}

// ValidateBody trims a message body and rejects blank ones. Callers that
// persist conversations lazily run this first, so a blank body never
// creates any row at all.
func ValidateBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", ErrEmptyBody
	}
	return trimmed, nil
}

// NewMessage validates and shapes a message ready to persist.
func NewMessage(conversationID, senderID, body string) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, ErrInvalidConversation
	}
	trimmed, err := ValidateBody(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           trimmed,
	}, nil
}
