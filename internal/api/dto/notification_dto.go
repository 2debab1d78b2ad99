package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/notify"
)

// NotificationResponse is the API projection of a dispatched notification.
type NotificationResponse struct {
	ID             string     `json:"id"`
	TicketID       string     `json:"ticket_id"`
	TicketNumber   string     `json:"ticket_number"`
	AlertType      string     `json:"alert_type"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	Priority       string     `json:"priority"`
	Channels       []string   `json:"channels"`
	SentAt         time.Time  `json:"sent_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
}

// FromNotification maps a registry entry to its response shape.
func FromNotification(n notify.Notification) NotificationResponse {
	channels := make([]string, 0, len(n.Channels))
	for _, ch := range n.Channels {
		channels = append(channels, string(ch))
	}
	return NotificationResponse{
		ID:             n.ID,
		TicketID:       n.Alert.TicketID,
		TicketNumber:   n.Alert.TicketNumber,
		AlertType:      string(n.Alert.Type),
		Severity:       string(n.Alert.Severity),
		Message:        n.Alert.Message,
		Priority:       string(n.Priority),
		Channels:       channels,
		SentAt:         n.SentAt,
		AcknowledgedAt: n.AcknowledgedAt,
		AcknowledgedBy: n.AcknowledgedBy,
	}
}
