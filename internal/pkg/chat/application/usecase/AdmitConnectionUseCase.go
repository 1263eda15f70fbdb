package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	chatrepo "resto-chat/internal/pkg/chat/persistence/repository/port"
	directory "resto-chat/internal/repository/port"

	"github.com/rs/zerolog"
)

// RejectReason labels why a handshake was refused. The client is expected to
// retry with a fresh handshake; the server never retries on its behalf.
type RejectReason string

const (
	ReasonStaleSession    RejectReason = "stale-session"
	ReasonMissingIdentity RejectReason = "missing-identity"
	ReasonStaleClaim      RejectReason = "stale-claim"
	ReasonClaimMismatch   RejectReason = "claim-mismatch"
	ReasonUnknownIdentity RejectReason = "unknown-identity"
)

// RejectionError is the terminal failure of the admission state machine.
type RejectionError struct {
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	return "admission rejected: " + string(e.Reason)
}

// HandshakeClaim is what a client presents when claiming a connection.
// Timestamp is zero when the client sent none; Nonce distinguishes distinct
// login events by the same identity.
type HandshakeClaim struct {
	IdentityID string
	Timestamp  time.Time
	Nonce      string
}

// AdmitConnectionUseCase runs a connection's admission: UNCLAIMED through
// PROVISIONAL to ADMITTED, or the terminal REJECTED. The policy is strictly
// reject-until-verified; nothing is admitted before the directory confirms
// the claimed identity, and every rejection fully evicts partial state so a
// retried handshake starts clean.
type AdmitConnectionUseCase struct {
	Registry  SessionRegistry
	Rooms     RoomRouter
	Directory directory.IdentityDirectory
	Repo      chatrepo.ChatRepository
	Clock     Clock

	// MaxClaimAge bounds how long a captured handshake payload stays valid.
	MaxClaimAge time.Duration

	Log zerolog.Logger

	backfills sync.WaitGroup
}

func NewAdmitConnectionUseCase(
	registry SessionRegistry,
	rooms RoomRouter,
	dir directory.IdentityDirectory,
	repo chatrepo.ChatRepository,
	clock Clock,
	maxClaimAge time.Duration,
	log zerolog.Logger,
) *AdmitConnectionUseCase {
	return &AdmitConnectionUseCase{
		Registry:    registry,
		Rooms:       rooms,
		Directory:   dir,
		Repo:        repo,
		Clock:       clock,
		MaxClaimAge: maxClaimAge,
		Log:         log.With().Str("component", "admission").Logger(),
	}
}

// Execute evaluates one handshake. The decision order matters and is:
// stale reused id, identity switch, missing identity, claim age, claim
// mismatch, directory resolution, admission.
func (uc *AdmitConnectionUseCase) Execute(ctx context.Context, connectionID string, claim HandshakeClaim) (*chat.Identity, error) {
	reject := func(reason RejectReason) error {
		uc.Registry.Evict(connectionID)
		uc.Log.Info().
			Str("connection_id", connectionID).
			Str("identity_id", claim.IdentityID).
			Str("reason", string(reason)).
			Msg("handshake rejected")
		return &RejectionError{Reason: reason}
	}

	if prev, ok := uc.Registry.Lookup(connectionID); ok {
		if _, claimed := uc.Registry.ClaimFor(connectionID); !claimed {
			// A registered identity with no claim on file means the transport
			// recycled this connection id without a fresh handshake.
			return nil, reject(ReasonStaleSession)
		}
		if prev != claim.IdentityID {
			// A different identity on a recycled id is legitimate, but the
			// old state must never leak into the new claim's evaluation.
			uc.Registry.Evict(connectionID)
			uc.Rooms.ClearMemberships(connectionID)
		}
	}

	if claim.IdentityID == "" {
		return nil, reject(ReasonMissingIdentity)
	}

	if !claim.Timestamp.IsZero() {
		if age := uc.Clock.Now().Sub(claim.Timestamp); age > uc.MaxClaimAge {
			return nil, reject(ReasonStaleClaim)
		}
	}

	if pending, ok := uc.Registry.ClaimFor(connectionID); ok && pending.IdentityID != claim.IdentityID {
		return nil, reject(ReasonClaimMismatch)
	}

	// Provisional from here until the directory confirms the identity.
	rc := realtime.Claim{IdentityID: claim.IdentityID, Timestamp: claim.Timestamp, Nonce: claim.Nonce}
	uc.Registry.PutClaim(connectionID, rc)

	ident, err := uc.Directory.GetByID(ctx, claim.IdentityID)
	if errors.Is(err, directory.ErrIdentityNotFound) {
		return nil, reject(ReasonUnknownIdentity)
	}
	if err != nil {
		uc.Registry.Evict(connectionID)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.Registry.Register(connectionID, ident.ID, rc)

	switch ident.Role {
	case chat.RoleCustomer:
		uc.Rooms.Join(realtime.CustomerRoom(ident.ID), connectionID)
	case chat.RoleStaff:
		uc.Rooms.Join(realtime.StaffRoom, connectionID)
		// O(active customers) membership scan, deferred off the admission
		// critical path so a slow scan cannot block new connections.
		uc.backfills.Add(1)
		go uc.backfillCustomerRooms(connectionID)
	default:
		return nil, reject(ReasonUnknownIdentity)
	}

	uc.Log.Info().
		Str("connection_id", connectionID).
		Str("identity_id", ident.ID).
		Str("role", string(ident.Role)).
		Msg("connection admitted")
	return ident, nil
}

// backfillCustomerRooms joins an admitted staff connection to the personal
// room of every customer with an active staff-group conversation.
func (uc *AdmitConnectionUseCase) backfillCustomerRooms(connectionID string) {
	defer uc.backfills.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ids, err := uc.Repo.ListActiveCustomerIDs(ctx)
	if err != nil {
		uc.Log.Error().Err(err).Str("connection_id", connectionID).Msg("customer room backfill failed")
		return
	}
	for _, id := range ids {
		uc.Rooms.Join(realtime.CustomerRoom(id), connectionID)
	}
}

// Wait blocks until all deferred membership backfills have finished. Called
// on shutdown so in-flight scans do not race teardown.
func (uc *AdmitConnectionUseCase) Wait() {
	uc.backfills.Wait()
}
