package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// StaffRoom is the one shared room every admitted staff connection joins.
const StaffRoom = "staff_room"

// CustomerRoom names the personal room of a customer. Room naming is a pure
// function of identity; there is no stored room entity.
func CustomerRoom(identityID string) string {
	return "customer_" + identityID
}

// Event is the wire envelope for every server-to-client frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Rooms tracks which connections are joined to which fan-out rooms and
// delivers events with fire-into-room semantics: every member gets the event,
// non-members get nothing, there is no queuing or retry.
type Rooms struct {
	mu          sync.RWMutex
	conns       map[string]*Connection            // connection id -> connection
	rooms       map[string]map[string]*Connection // room -> connection id -> connection
	memberships map[string]map[string]struct{}    // connection id -> set of rooms
	log         zerolog.Logger
}

// NewRooms constructs an initialized room table.
func NewRooms(log zerolog.Logger) *Rooms {
	return &Rooms{
		conns:       make(map[string]*Connection),
		rooms:       make(map[string]map[string]*Connection),
		memberships: make(map[string]map[string]struct{}),
		log:         log.With().Str("component", "rooms").Logger(),
	}
}

// Attach starts tracking a connection. The caller owns starting the write
// loop with Connection.Start once the socket is ready.
func (r *Rooms) Attach(conn *Connection) {
	r.mu.Lock()
	r.conns[conn.ID] = conn
	r.memberships[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()
}

// Detach removes a connection from every room and stops tracking it. The
// caller owns closing the underlying socket. Idempotent.
func (r *Rooms) Detach(connectionID string) {
	r.mu.Lock()
	r.detachLocked(connectionID)
	r.mu.Unlock()
}

// Drop detaches a connection and closes its socket. Used by force-eviction
// paths such as explicit logout.
func (r *Rooms) Drop(connectionID string, code int, reason string) {
	r.mu.Lock()
	conn := r.conns[connectionID]
	r.detachLocked(connectionID)
	r.mu.Unlock()

	if conn != nil {
		conn.Close(code, reason)
	}
}

// Join adds a tracked connection to a room. Idempotent; joining a room twice
// has no effect, and events dispatched before the join are not replayed.
func (r *Rooms) Join(room, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[connectionID] = conn
	r.memberships[connectionID][room] = struct{}{}
}

// ClearMemberships removes the connection from every room it has joined
// while keeping it attached. Used when a connection is re-admitted under a
// different identity: the old identity's memberships must never leak.
func (r *Rooms) ClearMemberships(connectionID string) {
	r.mu.Lock()
	for room := range r.memberships[connectionID] {
		r.leaveLocked(room, connectionID)
	}
	r.mu.Unlock()
}

// Leave removes a connection from a room.
func (r *Rooms) Leave(room, connectionID string) {
	r.mu.Lock()
	r.leaveLocked(room, connectionID)
	r.mu.Unlock()
}

// InRoom reports whether the connection is currently a member of the room.
func (r *Rooms) InRoom(room, connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connectionID]
	return ok
}

// Emit delivers an event to every member of the room and returns the number
// of connections it was handed to.
func (r *Rooms) Emit(room, event string, data any) int {
	return r.EmitSkip(room, event, data, "")
}

// EmitSkip is Emit with skip-self semantics: the connection named by
// skipConnectionID, if a member, does not receive the event.
func (r *Rooms) EmitSkip(room, event string, data any, skipConnectionID string) int {
	payload, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("encode event")
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for id, conn := range r.rooms[room] {
		if id == skipConnectionID {
			continue
		}
		if conn.Send(payload) == nil {
			delivered++
		}
	}
	return delivered
}

// EmitTo delivers an event to one connection only. Error frames use this so
// failures never leak beyond the offending connection.
func (r *Rooms) EmitTo(connectionID, event string, data any) bool {
	payload, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("encode event")
		return false
	}

	r.mu.RLock()
	conn := r.conns[connectionID]
	r.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears room state.
func (r *Rooms) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.memberships = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "server shutdown")
	}
}

func (r *Rooms) detachLocked(connectionID string) {
	if _, ok := r.conns[connectionID]; !ok {
		return
	}
	delete(r.conns, connectionID)
	for room := range r.memberships[connectionID] {
		r.leaveLocked(room, connectionID)
	}
	delete(r.memberships, connectionID)
}

func (r *Rooms) leaveLocked(room, connectionID string) {
	members := r.rooms[room]
	if members == nil {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if m, ok := r.memberships[connectionID]; ok {
		delete(m, room)
	}
}
