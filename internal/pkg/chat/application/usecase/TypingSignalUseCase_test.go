package usecase

import (
	"context"
	"testing"

	"resto-chat/internal/infrastructure/realtime"
	chat "resto-chat/internal/pkg/chat/application/domain"

	"github.com/rs/zerolog"
)

func TestTypingSignal(t *testing.T) {
	newFixture := func(idents ...chat.Identity) (*TypingSignalUseCase, *fakeRegistry, *fakeRooms) {
		registry := newFakeRegistry()
		rooms := newFakeRooms()
		uc := NewTypingSignalUseCase(registry, rooms, newFakeDirectory(idents...), zerolog.Nop())
		return uc, registry, rooms
	}

	t.Run("customer typing reaches the staff room, skipping self", func(t *testing.T) {
		uc, registry, rooms := newFixture(chat.Identity{ID: "cust-1", Role: chat.RoleCustomer, DisplayName: "Ana"})
		registry.Register("conn-1", "cust-1", realtime.Claim{IdentityID: "cust-1"})

		uc.Execute(context.Background(), TypingSignalInput{ConnectionID: "conn-1", IsTyping: true})

		events := rooms.eventsOfType(EventUserTyping)
		if len(events) != 1 {
			t.Fatalf("emitted %d typing events, want 1", len(events))
		}
		if events[0].Room != realtime.StaffRoom || events[0].Skip != "conn-1" {
			t.Errorf("typing event = %+v, want staff room with self skipped", events[0])
		}
		payload := events[0].Data.(TypingEvent)
		if payload.DisplayName != "Ana" || !payload.IsTyping {
			t.Errorf("typing payload = %+v", payload)
		}
	})

	t.Run("staff typing reaches the targeted customer room", func(t *testing.T) {
		uc, registry, rooms := newFixture(chat.Identity{ID: "staff-1", Role: chat.RoleStaff})
		registry.Register("conn-1", "staff-1", realtime.Claim{IdentityID: "staff-1"})

		uc.Execute(context.Background(), TypingSignalInput{ConnectionID: "conn-1", TargetCustomerID: "cust-1", IsTyping: true})

		events := rooms.eventsOfType(EventUserTyping)
		if len(events) != 1 || events[0].Room != realtime.CustomerRoom("cust-1") {
			t.Errorf("typing events = %v, want one into cust-1's room", events)
		}
	})

	t.Run("staff typing without a target is dropped", func(t *testing.T) {
		uc, registry, rooms := newFixture(chat.Identity{ID: "staff-1", Role: chat.RoleStaff})
		registry.Register("conn-1", "staff-1", realtime.Claim{IdentityID: "staff-1"})

		uc.Execute(context.Background(), TypingSignalInput{ConnectionID: "conn-1", IsTyping: true})

		if len(rooms.emits) != 0 {
			t.Errorf("expected silence, got %v", rooms.emits)
		}
	})

	t.Run("unregistered connection is dropped silently", func(t *testing.T) {
		uc, _, rooms := newFixture()

		uc.Execute(context.Background(), TypingSignalInput{ConnectionID: "ghost", IsTyping: true})

		if len(rooms.emits) != 0 {
			t.Errorf("expected silence, got %v", rooms.emits)
		}
	})
}
