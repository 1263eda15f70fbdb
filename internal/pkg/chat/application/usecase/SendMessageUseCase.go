package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/task"
	repository "resto-chat/internal/pkg/chat/persistence/repository/port"

	qport "resto-chat/internal/infrastructure/queue/port"
	directory "resto-chat/internal/repository/port"

	"github.com/rs/zerolog"
)

// SendMessageInput identifies the sender either by live connection (realtime
// path, resolved through the session registry) or by identity id (REST
// fallback path, already authenticated upstream). Exactly one of the two
// should be set; ConnectionID wins when both are.
type SendMessageInput struct {
	ConnectionID     string
	SenderID         string
	TargetCustomerID string // required when the sender is staff
	Body             string
}

// SendMessageResult reports what the pipeline persisted and announced.
type SendMessageResult struct {
	Message           *chat.Message
	Conversation      chat.ConversationSummary
	IsNewConversation bool
}

// deliveryPlan captures, per sender role, where the message and the
// conversation-list refresh go. Both sides always see the message: the
// customer's own room is included so their other devices stay in sync.
type deliveryPlan struct {
	messageRooms []string
	listRoom     string
}

// SendMessageUseCase is the single write path for chat messages. Persist
// first, then broadcast, then hand off to the notification queue; a queue
// failure never undoes or suppresses the broadcast.
type SendMessageUseCase struct {
	Registry  SessionRegistry
	Rooms     RoomRouter
	Directory directory.IdentityDirectory
	Repo      repository.ChatRepository
	Queue     qport.Client
	Log       zerolog.Logger
}

func NewSendMessageUseCase(
	registry SessionRegistry,
	rooms RoomRouter,
	dir directory.IdentityDirectory,
	repo repository.ChatRepository,
	queue qport.Client,
	log zerolog.Logger,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		Registry:  registry,
		Rooms:     rooms,
		Directory: dir,
		Repo:      repo,
		Queue:     queue,
		Log:       log.With().Str("component", "send-message").Logger(),
	}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	sender, err := uc.resolveSender(ctx, in)
	if err != nil {
		return nil, err
	}

	customer, plan, err := uc.planDelivery(ctx, sender, in.TargetCustomerID)
	if err != nil {
		return nil, err
	}

	// Validate before touching the store: a blank body must not leave a
	// freshly created conversation behind.
	body, err := chat.ValidateBody(in.Body)
	if err != nil {
		return nil, err
	}

	conv, err := uc.Repo.GetOrCreateConversation(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	draft, err := chat.NewMessage(conv.ID, sender.ID, body)
	if err != nil {
		return nil, err
	}
	msg, err := uc.Repo.SaveMessage(ctx, *draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := uc.Repo.TouchConversation(ctx, conv.ID, msg.SentAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// First persisted message marks the conversation as newly active. A
	// count failure here only costs the new_conversation announcement; the
	// message itself is already stored and still gets broadcast.
	isNew := false
	if count, err := uc.Repo.CountMessages(ctx, conv.ID); err != nil {
		uc.Log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("message count failed")
	} else {
		isNew = count == 1
	}

	conv.LastMessageAt = &msg.SentAt
	summary := conv.Summarize(*customer)

	msgEvent := MessageEvent{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		Body:           msg.Body,
		SentAt:         msg.SentAt,
		Conversation:   summary,
	}
	for _, room := range plan.messageRooms {
		uc.Rooms.Emit(room, EventNewMessage, msgEvent)
	}

	uc.Rooms.Emit(plan.listRoom, EventConversationList, ConversationListEvent{
		ConversationSummary: summary,
		LastMessage: LastMessagePreview{
			Body:       msg.Body,
			SentAt:     msg.SentAt,
			SenderName: sender.DisplayName,
		},
		IsNew: isNew,
	})

	if sender.Role == chat.RoleCustomer && isNew {
		uc.Rooms.Emit(realtime.StaffRoom, EventNewConversation, summary)
	}

	uc.enqueueNotification(ctx, sender, customer, msg)

	return &SendMessageResult{Message: msg, Conversation: summary, IsNewConversation: isNew}, nil
}

// resolveSender maps the input to a verified identity. Connection ids that
// the registry does not know, and identity ids the directory does not know,
// are both unauthenticated from the pipeline's point of view.
func (uc *SendMessageUseCase) resolveSender(ctx context.Context, in SendMessageInput) (*chat.Identity, error) {
	senderID := in.SenderID
	if in.ConnectionID != "" {
		id, ok := uc.Registry.Lookup(in.ConnectionID)
		if !ok {
			return nil, chat.ErrUnauthenticated
		}
		senderID = id
	}
	if senderID == "" {
		return nil, chat.ErrUnauthenticated
	}

	sender, err := uc.Directory.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, directory.ErrIdentityNotFound) {
			return nil, chat.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sender, nil
}

// planDelivery resolves the conversation's customer and the rooms to target.
func (uc *SendMessageUseCase) planDelivery(ctx context.Context, sender *chat.Identity, targetCustomerID string) (*chat.Identity, deliveryPlan, error) {
	switch sender.Role {
	case chat.RoleCustomer:
		return sender, deliveryPlan{
			messageRooms: []string{realtime.StaffRoom, realtime.CustomerRoom(sender.ID)},
			listRoom:     realtime.StaffRoom,
		}, nil

	case chat.RoleStaff:
		if targetCustomerID == "" {
			return nil, deliveryPlan{}, chat.ErrMissingCustomer
		}
		customer, err := uc.Directory.GetByID(ctx, targetCustomerID)
		if err != nil {
			if errors.Is(err, directory.ErrIdentityNotFound) {
				return nil, deliveryPlan{}, chat.ErrUnknownCustomer
			}
			return nil, deliveryPlan{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if customer.Role != chat.RoleCustomer {
			return nil, deliveryPlan{}, chat.ErrUnknownCustomer
		}
		return customer, deliveryPlan{
			messageRooms: []string{realtime.CustomerRoom(customer.ID), realtime.StaffRoom},
			listRoom:     realtime.CustomerRoom(customer.ID),
		}, nil

	default:
		return nil, deliveryPlan{}, chat.ErrInvalidRole
	}
}

func (uc *SendMessageUseCase) enqueueNotification(ctx context.Context, sender, customer *chat.Identity, msg *chat.Message) {
	if uc.Queue == nil {
		return
	}
	payload, err := json.Marshal(task.NotifyMessagePayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName,
		SenderRole:     string(sender.Role),
		Body:           msg.Body,
		CustomerID:     customer.ID,
		CustomerName:   customer.DisplayName,
	})
	if err != nil {
		uc.Log.Error().Err(err).Msg("notify payload marshal failed")
		return
	}
	_, err = uc.Queue.Enqueue(ctx,
		qport.Task{Type: task.NotifyMessageTaskType, Payload: payload},
		qport.EnqueueOption{Queue: "chat", MaxRetry: 3},
	)
	if err != nil {
		uc.Log.Warn().Err(err).Str("message_id", msg.ID).Msg("notification enqueue failed")
	}
}
