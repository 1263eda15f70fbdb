package usecase

import (
	"context"
	"sort"
	"time"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	qport "resto-chat/internal/infrastructure/queue/port"
	chatrepo "resto-chat/internal/pkg/chat/persistence/repository/port"
	directory "resto-chat/internal/repository/port"

	"github.com/google/uuid"
)

// ---- session registry ----

type fakeRegistry struct {
	identities map[string]string
	claims     map[string]realtime.Claim
	evictions  []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		identities: make(map[string]string),
		claims:     make(map[string]realtime.Claim),
	}
}

func (r *fakeRegistry) Register(connectionID, identityID string, claim realtime.Claim) {
	r.identities[connectionID] = identityID
	r.claims[connectionID] = claim
}

func (r *fakeRegistry) PutClaim(connectionID string, claim realtime.Claim) {
	r.claims[connectionID] = claim
}

func (r *fakeRegistry) Lookup(connectionID string) (string, bool) {
	id, ok := r.identities[connectionID]
	return id, ok
}

func (r *fakeRegistry) ClaimFor(connectionID string) (realtime.Claim, bool) {
	c, ok := r.claims[connectionID]
	return c, ok
}

func (r *fakeRegistry) Evict(connectionID string) {
	delete(r.identities, connectionID)
	delete(r.claims, connectionID)
	r.evictions = append(r.evictions, connectionID)
}

func (r *fakeRegistry) FindAllForIdentity(identityID string) []string {
	var ids []string
	for conn, ident := range r.identities {
		if ident == identityID {
			ids = append(ids, conn)
		}
	}
	return ids
}

// ---- room router ----

type emitted struct {
	Room  string
	Event string
	Data  any
	Skip  string
}

type fakeRooms struct {
	joins   map[string][]string // connection id -> rooms, join order preserved
	cleared []string
	dropped []string
	emits   []emitted
	directs []emitted // EmitTo deliveries, Room left empty
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{joins: make(map[string][]string)}
}

func (f *fakeRooms) Join(room, connectionID string) {
	for _, existing := range f.joins[connectionID] {
		if existing == room {
			return
		}
	}
	f.joins[connectionID] = append(f.joins[connectionID], room)
}

func (f *fakeRooms) ClearMemberships(connectionID string) {
	f.cleared = append(f.cleared, connectionID)
	delete(f.joins, connectionID)
}

func (f *fakeRooms) Emit(room, event string, data any) int {
	f.emits = append(f.emits, emitted{Room: room, Event: event, Data: data})
	return 1
}

func (f *fakeRooms) EmitSkip(room, event string, data any, skipConnectionID string) int {
	f.emits = append(f.emits, emitted{Room: room, Event: event, Data: data, Skip: skipConnectionID})
	return 1
}

func (f *fakeRooms) EmitTo(connectionID, event string, data any) bool {
	f.directs = append(f.directs, emitted{Room: connectionID, Event: event, Data: data})
	return true
}

func (f *fakeRooms) Drop(connectionID string, code int, reason string) {
	f.dropped = append(f.dropped, connectionID)
	delete(f.joins, connectionID)
}

func (f *fakeRooms) inRoom(room, connectionID string) bool {
	for _, r := range f.joins[connectionID] {
		if r == room {
			return true
		}
	}
	return false
}

func (f *fakeRooms) eventsOfType(event string) []emitted {
	var out []emitted
	for _, e := range f.emits {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// ---- identity directory ----

type fakeDirectory struct {
	identities map[string]chat.Identity
	devices    map[string][]string
	err        error // returned by every method when set
}

func newFakeDirectory(idents ...chat.Identity) *fakeDirectory {
	d := &fakeDirectory{
		identities: make(map[string]chat.Identity),
		devices:    make(map[string][]string),
	}
	for _, i := range idents {
		d.identities[i.ID] = i
	}
	return d
}

func (d *fakeDirectory) GetByID(ctx context.Context, id string) (*chat.Identity, error) {
	if d.err != nil {
		return nil, d.err
	}
	ident, ok := d.identities[id]
	if !ok {
		return nil, directory.ErrIdentityNotFound
	}
	return &ident, nil
}

func (d *fakeDirectory) ListStaff(ctx context.Context) ([]chat.Identity, error) {
	if d.err != nil {
		return nil, d.err
	}
	var staff []chat.Identity
	for _, i := range d.identities {
		if i.Role == chat.RoleStaff {
			staff = append(staff, i)
		}
	}
	return staff, nil
}

func (d *fakeDirectory) RegisterDevice(ctx context.Context, identityID, token, platform string) error {
	if d.err != nil {
		return d.err
	}
	d.devices[identityID] = append(d.devices[identityID], token)
	return nil
}

func (d *fakeDirectory) ListDeviceTokens(ctx context.Context, identityID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.devices[identityID], nil
}

// ---- chat repository ----

type fakeChatRepo struct {
	conversations map[string]*chat.Conversation // customer id -> conversation
	messages      []chat.Message
	touched       map[string]time.Time
	seq           int // monotonic, keeps SentAt values distinct

	activeCustomerIDs []string

	getOrCreateErr error
	saveErr        error
	touchErr       error
	countErr       error
	listActiveErr  error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		conversations: make(map[string]*chat.Conversation),
		touched:       make(map[string]time.Time),
	}
}

func (r *fakeChatRepo) GetOrCreateConversation(ctx context.Context, customerID string) (*chat.Conversation, error) {
	if r.getOrCreateErr != nil {
		return nil, r.getOrCreateErr
	}
	if conv, ok := r.conversations[customerID]; ok {
		copied := *conv
		return &copied, nil
	}
	id := customerID
	conv := &chat.Conversation{
		ID:           uuid.NewString(),
		CustomerID:   &id,
		IsStaffGroup: true,
		CreatedAt:    time.Now(),
	}
	r.conversations[customerID] = conv
	copied := *conv
	return &copied, nil
}

func (r *fakeChatRepo) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	for _, conv := range r.conversations {
		if conv.ID == id {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, chatrepo.ErrConversationNotFound
}

func (r *fakeChatRepo) ListConversationSummaries(ctx context.Context) ([]chat.ConversationSummary, error) {
	var out []chat.ConversationSummary
	for customerID, conv := range r.conversations {
		out = append(out, chat.ConversationSummary{ID: conv.ID, CustomerID: customerID})
	}
	return out, nil
}

func (r *fakeChatRepo) ListActiveCustomerIDs(ctx context.Context) ([]string, error) {
	if r.listActiveErr != nil {
		return nil, r.listActiveErr
	}
	return r.activeCustomerIDs, nil
}

func (r *fakeChatRepo) SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	m.ID = uuid.NewString()
	r.seq++
	m.SentAt = time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond)
	r.messages = append(r.messages, m)
	return &m, nil
}

func (r *fakeChatRepo) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) TouchConversation(ctx context.Context, conversationID string, lastMessageAt time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	r.touched[conversationID] = lastMessageAt
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	var out []chat.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ---- queue client ----

type fakeQueue struct {
	tasks []qport.Task
	opts  []qport.EnqueueOption
	err   error
}

func (q *fakeQueue) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, t)
	q.opts = append(q.opts, opts...)
	return uuid.NewString(), nil
}

func (q *fakeQueue) Close() error { return nil }

// ---- clock ----

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// compile checks that the fakes satisfy the ports they stand in for
var (
	_ SessionRegistry             = (*fakeRegistry)(nil)
	_ RoomRouter                  = (*fakeRooms)(nil)
	_ directory.IdentityDirectory = (*fakeDirectory)(nil)
	_ chatrepo.ChatRepository     = (*fakeChatRepo)(nil)
	_ qport.Client                = (*fakeQueue)(nil)
	_ Clock                       = (*fakeClock)(nil)
)
