package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Claim is the handshake material a connection presented when it was claimed
// for an identity. The timestamp and nonce distinguish distinct login events
// by the same identity, which is how a replayed handshake gets caught.
type Claim struct {
	IdentityID string
	Timestamp  time.Time
	Nonce      string
}

// Registry is the process-local mapping from opaque connection ids to
// authenticated identities, plus the claim each connection last presented.
// Nothing here survives a restart; any mismatch with the transport's own
// session bookkeeping is resolved by eager eviction, never reconciliation.
//
// The registry assumes it runs inside a single process. Scaling the transport
// to multiple processes requires swapping this for a shared-store
// implementation behind the same interface.
type Registry struct {
	mu         sync.RWMutex
	identities map[string]string // connection id -> identity id
	claims     map[string]Claim  // connection id -> last presented claim
	log        zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		identities: make(map[string]string),
		claims:     make(map[string]Claim),
		log:        log.With().Str("component", "session-registry").Logger(),
	}
}

// Register binds a connection id to an identity together with the claim it
// was admitted under. It is a pure upsert: any prior entry is overwritten,
// last claim wins, no error condition.
func (r *Registry) Register(connectionID, identityID string, claim Claim) {
	r.mu.Lock()
	r.identities[connectionID] = identityID
	r.claims[connectionID] = claim
	r.mu.Unlock()
}

// PutClaim records a provisional claim for a connection that is mid-handshake
// and not yet admitted.
func (r *Registry) PutClaim(connectionID string, claim Claim) {
	r.mu.Lock()
	r.claims[connectionID] = claim
	r.mu.Unlock()
}

// Lookup returns the identity a connection currently represents. Absence
// means unauthenticated; callers must refuse privileged actions on it.
func (r *Registry) Lookup(connectionID string) (string, bool) {
	r.mu.RLock()
	id, ok := r.identities[connectionID]
	r.mu.RUnlock()
	return id, ok
}

// ClaimFor returns the claim last presented on a connection, admitted or not.
func (r *Registry) ClaimFor(connectionID string) (Claim, bool) {
	r.mu.RLock()
	c, ok := r.claims[connectionID]
	r.mu.RUnlock()
	return c, ok
}

// Evict removes a connection from both maps. Idempotent; after Evict a Lookup
// for the same id returns absent, with no resurrection path.
func (r *Registry) Evict(connectionID string) {
	r.mu.Lock()
	identity, had := r.identities[connectionID]
	delete(r.identities, connectionID)
	delete(r.claims, connectionID)
	remaining := len(r.identities)
	r.mu.Unlock()

	if had {
		r.log.Info().
			Str("connection_id", connectionID).
			Str("identity_id", identity).
			Int("sessions", remaining).
			Msg("session evicted")
	}
}

// FindAllForIdentity returns every connection id currently registered to the
// identity. One identity may hold several live connections (devices, tabs);
// explicit logout force-evicts them all through this.
func (r *Registry) FindAllForIdentity(identityID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for conn, ident := range r.identities {
		if ident == identityID {
			ids = append(ids, conn)
		}
	}
	return ids
}

// Len reports the number of admitted sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}
