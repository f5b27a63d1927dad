// Package activity subscribes to the domain events and writes each one to
// the operational log, so the lead and call pipeline can be followed end to
// end from a single stream without touching the owning modules.
package activity

import (
	"context"

	"leadline-backend/internal/events"
	"leadline-backend/platform/logger"
)

// Module is the activity log event subscriber.
type Module struct {
	log *logger.Logger
}

// New creates the activity module.
func New(log *logger.Logger) *Module {
	return &Module{log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	// Intake domain events
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)

	// Call domain events
	bus.Subscribe(events.CallInitiated{}.EventName(), m)
	bus.Subscribe(events.CallCompleted{}.EventName(), m)
	bus.Subscribe(events.RecordingAttached{}.EventName(), m)

	m.log.Info("activity module registered event handlers")
}

// Handle routes events to the appropriate log line.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCaptured:
		m.log.Info("lead captured",
			"lead_id", e.LeadID,
			"source", e.Source,
			"assigned", e.AssignedAgentID != nil,
		)
	case events.LeadAssigned:
		m.log.Info("lead assigned",
			"lead_id", e.LeadID,
			"agent_id", e.AgentID,
		)
	case events.CallInitiated:
		m.log.Info("call initiated",
			"call_id", e.CallID,
			"agent_id", e.AgentID,
		)
	case events.CallCompleted:
		m.log.Info("call completed",
			"call_id", e.CallID,
			"outcome", e.Outcome,
		)
	case events.RecordingAttached:
		m.log.Info("recording attached",
			"call_id", e.CallID,
			"url", e.RecordingURL,
		)
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
	}
	return nil
}
