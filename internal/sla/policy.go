package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// WindowKind selects which SLA window a lookup refers to.
type WindowKind string

const (
	WindowResponse   WindowKind = "response"
	WindowResolution WindowKind = "resolution"
)

// ResolveWindow returns the configured window for the given priority tier.
// An unknown or unsupported priority falls back to the MEDIUM tier; that is
// an explicit default, not an error.
func ResolveWindow(priority domain.TicketPriority, policy *domain.SLAPolicy, kind WindowKind) time.Duration {
	if policy == nil {
		return 0
	}
	target, ok := policy.Targets[priority]
	if !ok {
		target = policy.Targets[domain.TicketPriorityMedium]
	}
	if kind == WindowResponse {
		return target.Response
	}
	return target.Resolution
}

// Deadline computes the absolute deadline for a ticket created at the given
// time under the given policy.
func Deadline(createdAt time.Time, priority domain.TicketPriority, policy *domain.SLAPolicy, kind WindowKind) time.Time {
	return createdAt.Add(ResolveWindow(priority, policy, kind))
}
