package usecase

import (
	"time"

	chat "resto-chat/internal/pkg/chat/application/domain"
)

// Server-to-client event names carried in the realtime envelope.
const (
	EventConnected        = "connected"
	EventNewMessage       = "new_message"
	EventNewConversation  = "new_conversation"
	EventConversationList = "update_conversation_list"
	EventUserTyping       = "user_typing"
	EventError            = "error"
)

// MessageEvent carries a full message plus enough conversation context that
// recipients can update list views without a follow-up fetch.
type MessageEvent struct {
	ID             string                   `json:"id"`
	ConversationID string                   `json:"conversation_id"`
	SenderID       string                   `json:"sender_id"`
	SenderName     string                   `json:"sender_name"`
	Body           string                   `json:"body"`
	SentAt         time.Time                `json:"sent_at"`
	Conversation   chat.ConversationSummary `json:"conversation"`
}

// LastMessagePreview is the snippet shown in conversation lists.
type LastMessagePreview struct {
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
	SenderName string    `json:"sender_name"`
}

// ConversationListEvent refreshes one entry of a conversation list view.
type ConversationListEvent struct {
	chat.ConversationSummary
	LastMessage LastMessagePreview `json:"last_message"`
	IsNew       bool               `json:"is_new"`
}

// TypingEvent is the stateless typing indicator payload.
type TypingEvent struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}

// ErrorEvent is delivered only to the connection that caused the error.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectedEvent acknowledges a successful admission.
type ConnectedEvent struct {
	ConnectionID string    `json:"connection_id"`
	IdentityID   string    `json:"identity_id"`
	DisplayName  string    `json:"display_name"`
	Role         chat.Role `json:"role"`
}
