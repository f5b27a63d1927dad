package activity

import (
	"context"
	"testing"

	"leadline-backend/internal/events"
	"leadline-backend/platform/logger"

	"github.com/google/uuid"
)

func TestRegisterHandlersCoversAllDomainEvents(t *testing.T) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	New(log).RegisterHandlers(bus)

	agent := uuid.New()
	published := []events.Event{
		events.LeadCaptured{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), Source: "webhook", AssignedAgentID: &agent},
		events.LeadAssigned{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), AgentID: agent},
		events.CallInitiated{BaseEvent: events.NewBaseEvent(), CallID: uuid.New(), AgentID: agent},
		events.CallCompleted{BaseEvent: events.NewBaseEvent(), CallID: uuid.New(), Outcome: "answered"},
		events.RecordingAttached{BaseEvent: events.NewBaseEvent(), CallID: uuid.New(), RecordingURL: "https://api.example.com/RE1.mp3"},
	}

	for _, event := range published {
		if err := bus.PublishSync(context.Background(), event); err != nil {
			t.Fatalf("publish %s: %v", event.EventName(), err)
		}
	}
}

type unrecognizedEvent struct{ events.BaseEvent }

func (unrecognizedEvent) EventName() string { return "calls.call.archived" }

func TestHandleAcceptsUnknownEvent(t *testing.T) {
	module := New(logger.New("development"))

	if err := module.Handle(context.Background(), unrecognizedEvent{BaseEvent: events.NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
