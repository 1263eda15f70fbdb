package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. A fresh socket is attached unauthenticated; nothing but the
// connect handshake is honored until the admission state machine accepts it.
type ChatSocketController struct {
	registry        *realtime.Registry
	rooms           *realtime.Rooms
	admitUC         *usecase.AdmitConnectionUseCase
	sendMessageUC   *usecase.SendMessageUseCase
	typingUC        *usecase.TypingSignalUseCase
	joinRoomUC      *usecase.JoinCustomerRoomUseCase
	inflightTimeout time.Duration
	log             zerolog.Logger

	// handlers dispatches inbound frames by type. A handler returns false to
	// end the read loop and tear the connection down.
	handlers map[string]frameHandler
}

type frameHandler func(c *gin.Context, conn *realtime.Connection, data json.RawMessage) bool

func NewChatSocketController(
	registry *realtime.Registry,
	rooms *realtime.Rooms,
	admitUC *usecase.AdmitConnectionUseCase,
	sendMessageUC *usecase.SendMessageUseCase,
	typingUC *usecase.TypingSignalUseCase,
	joinRoomUC *usecase.JoinCustomerRoomUseCase,
	log zerolog.Logger,
) *ChatSocketController {
	ctl := &ChatSocketController{
		registry:        registry,
		rooms:           rooms,
		admitUC:         admitUC,
		sendMessageUC:   sendMessageUC,
		typingUC:        typingUC,
		joinRoomUC:      joinRoomUC,
		inflightTimeout: 5 * time.Second,
		log:             log.With().Str("component", "chat-socket").Logger(),
	}
	ctl.handlers = map[string]frameHandler{
		"connect":      ctl.handleConnect,
		"send_message": ctl.handleSendMessage,
		"typing":       ctl.handleTyping,
		"join_room":    ctl.handleJoinRoom,
		"disconnect": func(*gin.Context, *realtime.Connection, json.RawMessage) bool {
			return false
		},
	}
	return ctl
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when mobile and
		// web origins are pinned down.
		return true
	},
}

// inboundFrame is the client-to-server envelope. connectPayload and
// actionPayload are decoded from Data per frame type.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type connectPayload struct {
	IdentityID string `json:"identity_id"`
	Timestamp  int64  `json:"timestamp,omitempty"` // milliseconds since epoch, 0 when absent
	Nonce      string `json:"nonce,omitempty"`
}

type actionPayload struct {
	Body       string `json:"body,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	IsTyping   bool   `json:"is_typing,omitempty"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(ws)
		ctl.rooms.Attach(conn)
		conn.Start()
		defer func() {
			ctl.registry.Evict(conn.ID)
			ctl.rooms.Detach(conn.ID)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.log.Debug().Err(err).Str("connection_id", conn.ID).Msg("read loop ended")
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			handler, ok := ctl.handlers[frame.Type]
			if !ok {
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
				continue
			}
			if !handler(c, conn, frame.Data) {
				return
			}
		}
	}
}

// handleConnect runs the admission handshake. A rejection closes the socket:
// the client is expected to reconnect and present a fresh claim.
func (ctl *ChatSocketController) handleConnect(c *gin.Context, conn *realtime.Connection, data json.RawMessage) bool {
	var p connectPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			ctl.replyError(conn, "bad_request", "invalid connect payload")
			return false
		}
	}

	claim := usecase.HandshakeClaim{IdentityID: p.IdentityID, Nonce: p.Nonce}
	if p.Timestamp > 0 {
		claim.Timestamp = time.UnixMilli(p.Timestamp)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	ident, err := ctl.admitUC.Execute(ctx, conn.ID, claim)
	if err != nil {
		var rejection *usecase.RejectionError
		if errors.As(err, &rejection) {
			ctl.replyError(conn, string(rejection.Reason), "handshake rejected")
		} else {
			ctl.replyError(conn, "internal_error", "admission failed")
		}
		return false
	}

	ctl.rooms.EmitTo(conn.ID, usecase.EventConnected, usecase.ConnectedEvent{
		ConnectionID: conn.ID,
		IdentityID:   ident.ID,
		DisplayName:  ident.DisplayName,
		Role:         ident.Role,
	})
	return true
}

func (ctl *ChatSocketController) handleSendMessage(c *gin.Context, conn *realtime.Connection, data json.RawMessage) bool {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.replyError(conn, "bad_request", "invalid payload")
		return true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	_, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConnectionID:     conn.ID,
		TargetCustomerID: p.CustomerID,
		Body:             p.Body,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
	}
	return true
}

func (ctl *ChatSocketController) handleTyping(c *gin.Context, conn *realtime.Connection, data json.RawMessage) bool {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return true // typing is best-effort, drop silently
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	ctl.typingUC.Execute(ctx, usecase.TypingSignalInput{
		ConnectionID:     conn.ID,
		TargetCustomerID: p.CustomerID,
		IsTyping:         p.IsTyping,
	})
	return true
}

func (ctl *ChatSocketController) handleJoinRoom(c *gin.Context, conn *realtime.Connection, data json.RawMessage) bool {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.replyError(conn, "bad_request", "invalid payload")
		return true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	ctl.joinRoomUC.Execute(ctx, conn.ID, p.CustomerID)
	return true
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		ctl.replyError(conn, "unauthenticated", "connect before sending messages")
	case errors.Is(err, chat.ErrEmptyBody):
		ctl.replyError(conn, "bad_request", "message body is empty")
	case errors.Is(err, chat.ErrMissingCustomer):
		ctl.replyError(conn, "bad_request", "customer_id is required")
	case errors.Is(err, chat.ErrUnknownCustomer):
		ctl.replyError(conn, "bad_request", "unknown customer")
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

// replyError delivers an error frame to the offending connection only.
func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code, message string) {
	ctl.rooms.EmitTo(conn.ID, usecase.EventError, usecase.ErrorEvent{Code: code, Message: message})
}
