package usecase

import (
	"context"
	"errors"
	"testing"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"
	"resto-chat/internal/pkg/chat/application/task"

	"github.com/rs/zerolog"
)

type sendFixture struct {
	uc       *SendMessageUseCase
	registry *fakeRegistry
	rooms    *fakeRooms
	dir      *fakeDirectory
	repo     *fakeChatRepo
	queue    *fakeQueue
}

func newSendFixture(idents ...chat.Identity) *sendFixture {
	registry := newFakeRegistry()
	rooms := newFakeRooms()
	dir := newFakeDirectory(idents...)
	repo := newFakeChatRepo()
	queue := &fakeQueue{}
	uc := NewSendMessageUseCase(registry, rooms, dir, repo, queue, zerolog.Nop())
	return &sendFixture{uc: uc, registry: registry, rooms: rooms, dir: dir, repo: repo, queue: queue}
}

func connectedAs(f *sendFixture, connectionID, identityID string) {
	f.registry.Register(connectionID, identityID, realtime.Claim{IdentityID: identityID})
}

func roomsHit(events []emitted) map[string]bool {
	rooms := make(map[string]bool)
	for _, e := range events {
		rooms[e.Room] = true
	}
	return rooms
}

func TestSendMessageFromCustomer(t *testing.T) {
	f := newSendFixture(
		chat.Identity{ID: "cust-1", Role: chat.RoleCustomer, DisplayName: "Ana", Phone: "555"},
		chat.Identity{ID: "staff-1", Role: chat.RoleStaff},
	)
	connectedAs(f, "conn-1", "cust-1")

	result, err := f.uc.Execute(context.Background(), SendMessageInput{
		ConnectionID: "conn-1",
		Body:         "table for four tonight?",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Message.Body != "table for four tonight?" {
		t.Errorf("persisted body = %q", result.Message.Body)
	}
	if len(f.repo.messages) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(f.repo.messages))
	}
	if _, ok := f.repo.touched[result.Message.ConversationID]; !ok {
		t.Error("conversation recency was not advanced")
	}

	hit := roomsHit(f.rooms.eventsOfType(EventNewMessage))
	if !hit[realtime.StaffRoom] || !hit[realtime.CustomerRoom("cust-1")] {
		t.Errorf("new_message rooms = %v, want staff room and customer's own room", hit)
	}

	lists := f.rooms.eventsOfType(EventConversationList)
	if len(lists) != 1 || lists[0].Room != realtime.StaffRoom {
		t.Errorf("conversation list refresh should target the staff room, got %v", lists)
	}
	listEvent, ok := lists[0].Data.(ConversationListEvent)
	if !ok {
		t.Fatalf("list event payload has type %T", lists[0].Data)
	}
	if !listEvent.IsNew {
		t.Error("first message should flag the conversation as new")
	}
	if listEvent.CustomerName != "Ana" || listEvent.CustomerPhone != "555" {
		t.Errorf("list event is missing customer details: %+v", listEvent.ConversationSummary)
	}

	if got := f.rooms.eventsOfType(EventNewConversation); len(got) != 1 || got[0].Room != realtime.StaffRoom {
		t.Errorf("new_conversation should fire once into the staff room, got %v", got)
	}

	if len(f.queue.tasks) != 1 || f.queue.tasks[0].Type != task.NotifyMessageTaskType {
		t.Fatalf("expected one notify task, got %v", f.queue.tasks)
	}
	if len(f.queue.opts) == 0 || f.queue.opts[0].Queue != "chat" {
		t.Errorf("notify task should ride the chat queue, opts = %v", f.queue.opts)
	}
}

func TestSendMessageSecondMessageIsNotNew(t *testing.T) {
	f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})
	connectedAs(f, "conn-1", "cust-1")

	for i := 0; i < 2; i++ {
		if _, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "hello"}); err != nil {
			t.Fatalf("send %d failed: %v", i+1, err)
		}
	}

	if got := f.rooms.eventsOfType(EventNewConversation); len(got) != 1 {
		t.Errorf("new_conversation fired %d times, want exactly once", len(got))
	}
}

func TestSendMessageFromStaff(t *testing.T) {
	f := newSendFixture(
		chat.Identity{ID: "staff-1", Role: chat.RoleStaff, DisplayName: "Bo"},
		chat.Identity{ID: "cust-1", Role: chat.RoleCustomer, DisplayName: "Ana"},
	)
	connectedAs(f, "conn-1", "staff-1")

	result, err := f.uc.Execute(context.Background(), SendMessageInput{
		ConnectionID:     "conn-1",
		TargetCustomerID: "cust-1",
		Body:             "your table is ready",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hit := roomsHit(f.rooms.eventsOfType(EventNewMessage))
	if !hit[realtime.CustomerRoom("cust-1")] || !hit[realtime.StaffRoom] {
		t.Errorf("new_message rooms = %v, want customer room and staff room", hit)
	}

	lists := f.rooms.eventsOfType(EventConversationList)
	if len(lists) != 1 || lists[0].Room != realtime.CustomerRoom("cust-1") {
		t.Errorf("list refresh should target the customer's room, got %v", lists)
	}

	// a staff-initiated thread never announces itself as a new conversation
	if got := f.rooms.eventsOfType(EventNewConversation); len(got) != 0 {
		t.Errorf("staff message fired new_conversation: %v", got)
	}

	if result.Conversation.CustomerID != "cust-1" {
		t.Errorf("conversation attributed to %q, want cust-1", result.Conversation.CustomerID)
	}
}

func TestSendMessageRESTFallback(t *testing.T) {
	f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})

	// no live connection: sender id comes pre-authenticated from the HTTP layer
	if _, err := f.uc.Execute(context.Background(), SendMessageInput{SenderID: "cust-1", Body: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hit := roomsHit(f.rooms.eventsOfType(EventNewMessage)); !hit[realtime.StaffRoom] {
		t.Error("REST-sent message never reached the staff room")
	}
}

func TestSendMessageValidation(t *testing.T) {
	t.Run("unregistered connection", func(t *testing.T) {
		f := newSendFixture()
		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "ghost", Body: "hi"})
		if !errors.Is(err, chat.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
		if len(f.repo.messages) != 0 || len(f.rooms.emits) != 0 {
			t.Error("rejected send left persisted or broadcast state behind")
		}
		if len(f.repo.conversations) != 0 {
			t.Error("rejected send created a conversation")
		}
	})

	t.Run("blank body", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})
		connectedAs(f, "conn-1", "cust-1")
		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "   "})
		if !errors.Is(err, chat.ErrEmptyBody) {
			t.Errorf("expected ErrEmptyBody, got %v", err)
		}
		if len(f.repo.messages) != 0 {
			t.Error("blank message was persisted")
		}
		// validation runs before get-or-create: a blank first message must
		// not leave an empty conversation in staff list views
		if len(f.repo.conversations) != 0 {
			t.Error("blank message created a conversation")
		}
		if len(f.rooms.emits) != 0 {
			t.Error("blank message was broadcast")
		}
	})

	t.Run("staff without a target customer", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "staff-1", Role: chat.RoleStaff})
		connectedAs(f, "conn-1", "staff-1")
		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "hi"})
		if !errors.Is(err, chat.ErrMissingCustomer) {
			t.Errorf("expected ErrMissingCustomer, got %v", err)
		}
	})

	t.Run("staff targeting an unknown customer", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "staff-1", Role: chat.RoleStaff})
		connectedAs(f, "conn-1", "staff-1")
		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", TargetCustomerID: "ghost", Body: "hi"})
		if !errors.Is(err, chat.ErrUnknownCustomer) {
			t.Errorf("expected ErrUnknownCustomer, got %v", err)
		}
	})

	t.Run("staff targeting another staff member", func(t *testing.T) {
		f := newSendFixture(
			chat.Identity{ID: "staff-1", Role: chat.RoleStaff},
			chat.Identity{ID: "staff-2", Role: chat.RoleStaff},
		)
		connectedAs(f, "conn-1", "staff-1")
		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", TargetCustomerID: "staff-2", Body: "hi"})
		if !errors.Is(err, chat.ErrUnknownCustomer) {
			t.Errorf("expected ErrUnknownCustomer, got %v", err)
		}
	})
}

func TestSendMessageInfrastructureFailures(t *testing.T) {
	t.Run("recency update failure aborts before broadcast", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})
		connectedAs(f, "conn-1", "cust-1")
		f.repo.touchErr = errors.New("db down")

		_, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "hi"})
		if !errors.Is(err, ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(f.rooms.emits) != 0 {
			t.Error("broadcast happened despite the aborted pipeline")
		}
	})

	t.Run("count failure still broadcasts", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})
		connectedAs(f, "conn-1", "cust-1")
		f.repo.countErr = errors.New("db flaky")

		result, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsNewConversation {
			t.Error("unknown count must not claim a new conversation")
		}
		if len(f.rooms.eventsOfType(EventNewMessage)) == 0 {
			t.Error("message was not broadcast")
		}
	})

	t.Run("queue failure never undoes the send", func(t *testing.T) {
		f := newSendFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer})
		connectedAs(f, "conn-1", "cust-1")
		f.queue.err = errors.New("redis down")

		if _, err := f.uc.Execute(context.Background(), SendMessageInput{ConnectionID: "conn-1", Body: "hi"}); err != nil {
			t.Fatalf("queue failure leaked out of the pipeline: %v", err)
		}
		if len(f.repo.messages) != 1 {
			t.Error("message was not persisted")
		}
		if len(f.rooms.eventsOfType(EventNewMessage)) == 0 {
			t.Error("message was not broadcast")
		}
	})
}
