package usecase

import (
	"context"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	directory "resto-chat/internal/repository/port"

	"github.com/rs/zerolog"
)

// JoinCustomerRoomUseCase lets a staff connection explicitly join one
// customer's room, covering conversations created after the connection's
// admission backfill ran. Customers cannot join arbitrary rooms; a request
// from anyone but staff is a silent no-op.
type JoinCustomerRoomUseCase struct {
	Registry  SessionRegistry
	Rooms     RoomRouter
	Directory directory.IdentityDirectory
	Log       zerolog.Logger
}

func NewJoinCustomerRoomUseCase(registry SessionRegistry, rooms RoomRouter, dir directory.IdentityDirectory, log zerolog.Logger) *JoinCustomerRoomUseCase {
	return &JoinCustomerRoomUseCase{
		Registry:  registry,
		Rooms:     rooms,
		Directory: dir,
		Log:       log.With().Str("component", "join-room").Logger(),
	}
}

func (uc *JoinCustomerRoomUseCase) Execute(ctx context.Context, connectionID, customerID string) {
	if customerID == "" {
		return
	}
	identityID, ok := uc.Registry.Lookup(connectionID)
	if !ok {
		return
	}
	member, err := uc.Directory.GetByID(ctx, identityID)
	if err != nil || member.Role != chat.RoleStaff {
		return
	}
	uc.Rooms.Join(realtime.CustomerRoom(customerID), connectionID)
	uc.Log.Debug().Str("connection_id", connectionID).Str("customer_id", customerID).Msg("staff joined customer room")
}
