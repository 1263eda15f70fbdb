package controller

import (
	"errors"
	"net/http"

	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// SendMessageController is the REST fallback for posting a message when no
// websocket is available. It funnels into the same pipeline the socket path
// uses, so persistence, broadcast and notification behave identically.
type SendMessageController struct {
	sendMessageUC *usecase.SendMessageUseCase
}

func NewSendMessageController(sendMessageUC *usecase.SendMessageUseCase) *SendMessageController {
	return &SendMessageController{sendMessageUC: sendMessageUC}
}

type sendMessageRequest struct {
	Body       string `json:"body" binding:"required"`
	CustomerID string `json:"customer_id,omitempty"`
}

func (ctl *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
			return
		}

		result, err := ctl.sendMessageUC.Execute(c.Request.Context(), usecase.SendMessageInput{
			SenderID:         c.GetString("identity_id"),
			TargetCustomerID: req.CustomerID,
			Body:             req.Body,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrUnauthenticated):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
			case errors.Is(err, chat.ErrEmptyBody),
				errors.Is(err, chat.ErrMissingCustomer),
				errors.Is(err, chat.ErrUnknownCustomer):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":      toMessagePayload(*result.Message),
			"conversation": result.Conversation,
		})
	}
}
