package controller

import (
	"net/http"

	"resto-chat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// LogoutController closes every live realtime connection of the caller so a
// discarded credential cannot keep riding an open socket. Token revocation
// itself is handled by the auth service that issued it.
type LogoutController struct {
	evictUC *usecase.EvictIdentityUseCase
}

func NewLogoutController(evictUC *usecase.EvictIdentityUseCase) *LogoutController {
	return &LogoutController{evictUC: evictUC}
}

func (ctl *LogoutController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		evicted := ctl.evictUC.Execute(c.GetString("identity_id"))
		c.JSON(http.StatusOK, gin.H{"connections_closed": evicted})
	}
}
