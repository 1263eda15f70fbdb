package http

import (
	qport "resto-chat/internal/infrastructure/queue/port"
	"resto-chat/internal/infrastructure/realtime"
	"resto-chat/internal/middleware"
	"resto-chat/internal/pkg/chat/application/usecase"
	chatrepo "resto-chat/internal/pkg/chat/persistence/repository/port"
	"resto-chat/internal/pkg/chat/presentation/controller"
	directory "resto-chat/internal/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps bundles the shared infrastructure the chat endpoints are built on.
type Deps struct {
	Registry  *realtime.Registry
	Rooms     *realtime.Rooms
	Directory directory.IdentityDirectory
	Repo      chatrepo.ChatRepository
	Queue     qport.Client
	Admit     *usecase.AdmitConnectionUseCase
	JWTSecret string
	Log       zerolog.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	sendMessageUC := usecase.NewSendMessageUseCase(d.Registry, d.Rooms, d.Directory, d.Repo, d.Queue, d.Log)
	typingUC := usecase.NewTypingSignalUseCase(d.Registry, d.Rooms, d.Directory, d.Log)
	joinRoomUC := usecase.NewJoinCustomerRoomUseCase(d.Registry, d.Rooms, d.Directory, d.Log)
	getMessageUC := usecase.NewGetMessageUseCase(d.Directory, d.Repo)
	listUC := usecase.NewListConversationsUseCase(d.Directory, d.Repo)
	evictUC := usecase.NewEvictIdentityUseCase(d.Registry, d.Rooms, d.Log)

	socketCtl := controller.NewChatSocketController(d.Registry, d.Rooms, d.Admit, sendMessageUC, typingUC, joinRoomUC, d.Log)
	sendMsgCtl := controller.NewSendMessageController(sendMessageUC)
	getMsgCtl := controller.NewGetMessageController(getMessageUC)
	listCtl := controller.NewListConversationsController(listUC)
	deviceCtl := controller.NewRegisterDeviceController(d.Directory)
	logoutCtl := controller.NewLogoutController(evictUC)

	// GET /api/v1/chat/ws -> websocket endpoint; identity is established by
	// the connect handshake, not the HTTP middleware
	g.GET("/chat/ws", socketCtl.Handle())

	authed := g.Group("", middleware.Auth(d.JWTSecret))

	// POST /api/v1/chat/messages -> REST fallback for sending a message
	authed.POST("/chat/messages", sendMsgCtl.Handle())

	// GET /api/v1/chat/conversations -> conversation list for the caller
	authed.GET("/chat/conversations", listCtl.Handle())

	// GET /api/v1/chat/conversations/:conversationId/messages -> history page
	authed.GET("/chat/conversations/:conversationId/messages", getMsgCtl.Handle())

	// POST /api/v1/chat/devices -> register a push token
	authed.POST("/chat/devices", deviceCtl.Handle())

	// POST /api/v1/chat/logout -> drop all live connections of the caller
	authed.POST("/chat/logout", logoutCtl.Handle())
}
