package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLAWarning          EventType = "sla_warning"
	EventSLABreach           EventType = "sla_breach"
	EventSLANotificationSent EventType = "sla_notification_sent"
)

// Event represents an SLA event emitted on the in-process bus.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AlertEventType maps an alert type to its bus event type.
func AlertEventType(t domain.AlertType) EventType {
	if t == domain.AlertTypeBreach {
		return EventSLABreach
	}
	return EventSLAWarning
}
