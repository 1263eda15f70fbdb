package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/usecase"
	repository "resto-chat/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
)

// GetMessageController pages through one conversation's history, oldest
// first. Customers can only read their own conversation.
type GetMessageController struct {
	getMessageUC *usecase.GetMessageUseCase
}

func NewGetMessageController(getMessageUC *usecase.GetMessageUseCase) *GetMessageController {
	return &GetMessageController{getMessageUC: getMessageUC}
}

// messagePayload is the REST projection of a message.
type messagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}

func toMessagePayload(m chat.Message) messagePayload {
	return messagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		SentAt:         m.SentAt,
	}
}

func (ctl *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		messages, err := ctl.getMessageUC.Execute(c.Request.Context(), c.GetString("identity_id"), conversationID, limit, offset)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrConversationNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			case errors.Is(err, usecase.ErrForbidden):
				c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			case errors.Is(err, chat.ErrUnauthenticated):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
			}
			return
		}

		payload := make([]messagePayload, 0, len(messages))
		for _, m := range messages {
			payload = append(payload, toMessagePayload(m))
		}
		c.JSON(http.StatusOK, gin.H{"messages": payload})
	}
}
