package notify

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Channel identifies a delivery mechanism for an alert.
type Channel string

const (
	ChannelBrowser Channel = "browser"
	ChannelToast   Channel = "toast"
	ChannelWebhook Channel = "webhook"
	ChannelEmail   Channel = "email"
)

// Priority grades a notification for presentation purposes.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
)

// Notification wraps an alert with delivery metadata. It is created when
// dispatched, mutated only to record acknowledgement, and garbage-collected
// by the retention sweep.
type Notification struct {
	ID             string
	Alert          domain.SLABreachAlert
	Channels       []Channel
	Priority       Priority
	SentAt         time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy *string
}

// Acknowledged reports whether the notification has been acknowledged.
func (n *Notification) Acknowledged() bool {
	return n.AcknowledgedAt != nil
}

// computePriority grades the notification from the alert type and the
// underlying ticket priority.
func computePriority(alert domain.SLABreachAlert) Priority {
	urgentTicket := alert.Priority == domain.TicketPriorityCritical || alert.Priority == domain.TicketPriorityHigh
	switch {
	case alert.Type == domain.AlertTypeBreach && urgentTicket:
		return PriorityUrgent
	case alert.Type == domain.AlertTypeBreach || urgentTicket:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
