package controller

import (
	"errors"
	"net/http"

	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// ListConversationsController serves conversation lists: every active
// conversation for staff, the caller's own single thread for customers.
type ListConversationsController struct {
	listUC *usecase.ListConversationsUseCase
}

func NewListConversationsController(listUC *usecase.ListConversationsUseCase) *ListConversationsController {
	return &ListConversationsController{listUC: listUC}
}

func (ctl *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := ctl.listUC.Execute(c.Request.Context(), c.GetString("identity_id"))
		if err != nil {
			if errors.Is(err, chat.ErrUnauthenticated) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": summaries})
	}
}
