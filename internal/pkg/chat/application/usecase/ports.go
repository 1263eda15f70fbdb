package usecase

import (
	"resto-chat/internal/infrastructure/realtime"
)

// SessionRegistry is the injectable view of the in-memory session map. The
// process-local realtime.Registry is the only implementation today; the
// interface exists so a shared-store registry can replace it if the
// deployment ever runs more than one server process.
type SessionRegistry interface {
	Register(connectionID, identityID string, claim realtime.Claim)
	PutClaim(connectionID string, claim realtime.Claim)
	Lookup(connectionID string) (string, bool)
	ClaimFor(connectionID string) (realtime.Claim, bool)
	Evict(connectionID string)
	FindAllForIdentity(identityID string) []string
}

// RoomRouter is the fan-out surface the use cases drive. Deliveries are
// fire-into-room: members get the event, everyone else gets nothing.
type RoomRouter interface {
	Join(room, connectionID string)
	ClearMemberships(connectionID string)
	Emit(room, event string, data any) int
	EmitSkip(room, event string, data any, skipConnectionID string) int
	EmitTo(connectionID, event string, data any) bool
	Drop(connectionID string, code int, reason string)
}

var (
	_ SessionRegistry = (*realtime.Registry)(nil)
	_ RoomRouter      = (*realtime.Rooms)(nil)
)
