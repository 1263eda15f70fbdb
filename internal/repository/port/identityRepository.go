package repository

import (
	"context"
	"errors"

	chat "resto-chat/internal/pkg/chat/application/domain"
)

// ErrIdentityNotFound signals a directory lookup for an id that does not
// exist. Callers map it to their own not-found/unknown-identity semantics.
var ErrIdentityNotFound = errors.New("identity directory: not found")

// IdentityDirectory is the read-only view of authenticated users the chat
// core consumes, plus the device-token bookkeeping the notification sink
// needs. User records themselves are owned elsewhere.
type IdentityDirectory interface {
	GetByID(ctx context.Context, id string) (*chat.Identity, error)
	ListStaff(ctx context.Context) ([]chat.Identity, error)

	// RegisterDevice upserts a push token for the identity.
	RegisterDevice(ctx context.Context, identityID, token, platform string) error
	ListDeviceTokens(ctx context.Context, identityID string) ([]string, error)
}
