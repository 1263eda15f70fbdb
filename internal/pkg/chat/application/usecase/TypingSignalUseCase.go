package usecase

import (
	"context"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	directory "resto-chat/internal/repository/port"

	"github.com/rs/zerolog"
)

// TypingSignalInput carries one typing state change from a live connection.
type TypingSignalInput struct {
	ConnectionID     string
	TargetCustomerID string // staff only: whose thread they are typing in
	IsTyping         bool
}

// TypingSignalUseCase relays typing indicators to the counterpart room.
// Indicators are stateless and best-effort: nothing is persisted, nothing is
// retried, and a signal from an unregistered or unknown sender is silently
// dropped rather than answered with an error frame.
type TypingSignalUseCase struct {
	Registry  SessionRegistry
	Rooms     RoomRouter
	Directory directory.IdentityDirectory
	Log       zerolog.Logger
}

func NewTypingSignalUseCase(registry SessionRegistry, rooms RoomRouter, dir directory.IdentityDirectory, log zerolog.Logger) *TypingSignalUseCase {
	return &TypingSignalUseCase{
		Registry:  registry,
		Rooms:     rooms,
		Directory: dir,
		Log:       log.With().Str("component", "typing-signal").Logger(),
	}
}

func (uc *TypingSignalUseCase) Execute(ctx context.Context, in TypingSignalInput) {
	identityID, ok := uc.Registry.Lookup(in.ConnectionID)
	if !ok {
		return
	}
	sender, err := uc.Directory.GetByID(ctx, identityID)
	if err != nil {
		uc.Log.Debug().Err(err).Str("identity_id", identityID).Msg("typing sender lookup failed")
		return
	}

	event := TypingEvent{
		IdentityID:  sender.ID,
		DisplayName: sender.DisplayName,
		IsTyping:    in.IsTyping,
	}

	switch sender.Role {
	case chat.RoleCustomer:
		uc.Rooms.EmitSkip(realtime.StaffRoom, EventUserTyping, event, in.ConnectionID)
	case chat.RoleStaff:
		if in.TargetCustomerID == "" {
			return
		}
		uc.Rooms.EmitSkip(realtime.CustomerRoom(in.TargetCustomerID), EventUserTyping, event, in.ConnectionID)
	}
}
