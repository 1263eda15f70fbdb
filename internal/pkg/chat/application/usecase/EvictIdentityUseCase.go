package usecase

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// EvictIdentityUseCase tears down every live connection of one identity.
// Used on logout so a revoked credential cannot keep riding an open socket.
type EvictIdentityUseCase struct {
	Registry SessionRegistry
	Rooms    RoomRouter
	Log      zerolog.Logger
}

func NewEvictIdentityUseCase(registry SessionRegistry, rooms RoomRouter, log zerolog.Logger) *EvictIdentityUseCase {
	return &EvictIdentityUseCase{
		Registry: registry,
		Rooms:    rooms,
		Log:      log.With().Str("component", "evict-identity").Logger(),
	}
}

// Execute drops all connections registered for identityID and returns how
// many were closed.
func (uc *EvictIdentityUseCase) Execute(identityID string) int {
	connections := uc.Registry.FindAllForIdentity(identityID)
	for _, connectionID := range connections {
		uc.Registry.Evict(connectionID)
		uc.Rooms.Drop(connectionID, websocket.CloseNormalClosure, "logged out")
	}
	if len(connections) > 0 {
		uc.Log.Info().Str("identity_id", identityID).Int("connections", len(connections)).Msg("identity evicted")
	}
	return len(connections)
}
