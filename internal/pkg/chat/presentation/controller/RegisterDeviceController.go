package controller

import (
	"net/http"

	directory "resto-chat/internal/repository/port"

	"github.com/gin-gonic/gin"
)

// RegisterDeviceController upserts a push token for the authenticated
// identity so the notification sink can reach their device.
type RegisterDeviceController struct {
	directory directory.IdentityDirectory
}

func NewRegisterDeviceController(dir directory.IdentityDirectory) *RegisterDeviceController {
	return &RegisterDeviceController{directory: dir}
}

type registerDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform,omitempty"`
}

func (ctl *RegisterDeviceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}

		identityID := c.GetString("identity_id")
		if err := ctl.directory.RegisterDevice(c.Request.Context(), identityID, req.Token, req.Platform); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "registered"})
	}
}
