package task

import (
	"context"
	"encoding/json"
	"time"

	pushport "resto-chat/internal/infrastructure/push/port"
	qport "resto-chat/internal/infrastructure/queue/port"
	chat "resto-chat/internal/pkg/chat/application/domain"
	directory "resto-chat/internal/repository/port"

	"github.com/rs/zerolog"
)

// NotifyMessageTaskType is the queue task name for message push notifications.
const NotifyMessageTaskType = "chat:notify_message"

// previewLimit caps how much of a message body lands in a push notification.
const previewLimit = 100

// NotifyMessagePayload is the JSON payload transported via the queue. Kept
// decoupled from domain types to avoid tight coupling with JSON tags.
type NotifyMessagePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
	SenderRole     string `json:"senderRole"`
	Body           string `json:"body"`
	CustomerID     string `json:"customerId"`
	CustomerName   string `json:"customerName"`
}

// RegisterNotifyMessageTask binds the push fan-out handler to the provided
// queue server. Staff-sent messages notify the one target customer; customer
// messages notify every staff identity with a registered device. Per-device
// delivery failures are logged and swallowed, never retried through the
// queue — by the time this runs, the message is already broadcast.
func RegisterNotifyMessageTask(srv qport.Server, dir directory.IdentityDirectory, sender pushport.Sender, log zerolog.Logger) {
	logger := log.With().Str("component", "notify-task").Logger()

	srv.Register(NotifyMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			logger.Error().Err(err).Msg("malformed notify payload")
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		var recipients []string
		var title string
		data := map[string]string{
			"type":            "chat",
			"message_id":      p.MessageID,
			"conversation_id": p.ConversationID,
		}

		if chat.Role(p.SenderRole) == chat.RoleStaff {
			recipients = []string{p.CustomerID}
			title = "Support replied"
			data["staff_id"] = p.SenderID
		} else {
			staff, err := dir.ListStaff(ctx)
			if err != nil {
				return err // infra failure, let the queue retry
			}
			for _, s := range staff {
				recipients = append(recipients, s.ID)
			}
			title = "New message from " + p.SenderName
			data["customer_id"] = p.CustomerID
			data["customer_name"] = p.CustomerName
		}

		body := truncate(p.Body, previewLimit)
		for _, id := range recipients {
			tokens, err := dir.ListDeviceTokens(ctx, id)
			if err != nil {
				logger.Warn().Err(err).Str("identity_id", id).Msg("device token lookup failed")
				continue
			}
			for _, token := range tokens {
				if err := sender.Send(ctx, token, title, body, data); err != nil {
					logger.Warn().Err(err).Str("identity_id", id).Msg("push delivery failed")
				}
			}
		}
		return nil
	})
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
