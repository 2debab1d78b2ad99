package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen                TicketStatus = "OPEN"
	TicketStatusInProgress          TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingOnCustomer   TicketStatus = "WAITING_ON_CUSTOMER"
	TicketStatusWaitingOnThirdParty TicketStatus = "WAITING_ON_THIRD_PARTY"
	TicketStatusResolved            TicketStatus = "RESOLVED"
	TicketStatusClosed              TicketStatus = "CLOSED"
)

// IsSLAPaused reports whether responsibility sits outside the support team,
// which stops the SLA clock.
func (s TicketStatus) IsSLAPaused() bool {
	return s == TicketStatusWaitingOnCustomer || s == TicketStatusWaitingOnThirdParty
}

// IsTerminal reports whether the ticket reached a final lifecycle state.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "CRITICAL"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityLow      TicketPriority = "LOW"
)

// SLAStatus is the last observed SLA state recorded on a ticket. It is the
// hysteresis memory that suppresses repeated alerts for an already reported
// transition.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "ON_TRACK"
	SLAStatusAtRisk   SLAStatus = "AT_RISK"
	SLAStatusBreached SLAStatus = "BREACHED"
	SLAStatusPaused   SLAStatus = "PAUSED"
	SLAStatusMet      SLAStatus = "MET"
)

// Ticket is the SLA-relevant projection of the ticket aggregate. The engine
// reads priority, status and due time, and asks the external store to persist
// a new SLAStatus after classification; it never writes other fields.
type Ticket struct {
	ID               string
	Number           string
	Priority         TicketPriority
	Status           TicketStatus
	AssigneeID       *string
	Policy           *SLAPolicy
	SLAResolutionDue *time.Time
	SLAStatus        SLAStatus
	CreatedAt        time.Time
}
