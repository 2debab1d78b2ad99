package domain

import "time"

// AlertType distinguishes the two SLA transitions that produce alerts.
type AlertType string

const (
	AlertTypeWarning AlertType = "WARNING"
	AlertTypeBreach  AlertType = "BREACH"
)

// AlertSeverity grades an alert for downstream consumers.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "INFO"
	AlertSeverityWarning  AlertSeverity = "WARNING"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// SLABreachAlert is emitted once per detected SLA transition, never per poll
// tick. Immutable once created.
type SLABreachAlert struct {
	ID           string         `json:"id"`
	TicketID     string         `json:"ticket_id"`
	TicketNumber string         `json:"ticket_number"`
	Type         AlertType      `json:"type"`
	Severity     AlertSeverity  `json:"severity"`
	Message      string         `json:"message"`
	Timestamp    time.Time      `json:"timestamp"`
	Priority     TicketPriority `json:"priority"`
	AssigneeID   *string        `json:"assignee_id,omitempty"`
	DueTime      time.Time      `json:"due_time"`
}
