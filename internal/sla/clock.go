package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Clock abstracts wall-clock access so evaluations are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// fallbackHorizon estimates a total window when the policy cannot resolve a
// positive one. It mirrors the assumption that resolution windows are
// measured within a business day.
const fallbackHorizon = 24 * time.Hour

// TimerResult is the derived outcome of one SLA evaluation. It is computed
// fresh on every pass and never stored.
type TimerResult struct {
	Status           domain.SLAStatus
	RemainingMinutes int
	RemainingDisplay string
	PercentRemaining float64
	IsBreached       bool
	IsAtRisk         bool
}

// Evaluate classifies a ticket's SLA position at the given instant.
//
// Tickets waiting on the customer or a third party return PAUSED: the SLA
// clock is conceptually stopped while responsibility is outside the support
// team. Resolved and closed tickets return MET; a resolved ticket cannot be
// breached retroactively by this evaluator.
func Evaluate(dueTime time.Time, priority domain.TicketPriority, policy *domain.SLAPolicy, lifecycle domain.TicketStatus, now time.Time) TimerResult {
	if lifecycle.IsSLAPaused() {
		return TimerResult{
			Status:           domain.SLAStatusPaused,
			RemainingDisplay: FormatRemaining(0),
			PercentRemaining: 100,
		}
	}
	if lifecycle.IsTerminal() {
		return TimerResult{
			Status:           domain.SLAStatusMet,
			RemainingDisplay: FormatRemaining(0),
			PercentRemaining: 100,
		}
	}

	remaining := dueTime.Sub(now)
	remainingMinutes := int(remaining.Minutes())
	isBreached := remaining < 0

	window := ResolveWindow(priority, policy, WindowResolution)
	if window <= 0 {
		window = fallbackHorizon
	}
	percent := clampPercent(remaining.Minutes() / window.Minutes() * 100)

	threshold := 25.0
	if policy != nil && policy.WarningThresholdPercent > 0 {
		threshold = policy.WarningThresholdPercent
	}
	isAtRisk := !isBreached && percent <= threshold

	status := domain.SLAStatusOnTrack
	switch {
	case isBreached:
		status = domain.SLAStatusBreached
	case isAtRisk:
		status = domain.SLAStatusAtRisk
	}

	return TimerResult{
		Status:           status,
		RemainingMinutes: remainingMinutes,
		RemainingDisplay: FormatRemaining(remainingMinutes),
		PercentRemaining: percent,
		IsBreached:       isBreached,
		IsAtRisk:         isAtRisk,
	}
}

// FormatRemaining renders a minute count as "HHh MMm", collapsing to "MMm"
// when under one hour. The sign is only ever a leading minus.
func FormatRemaining(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%s%dm", sign, mins)
	}
	return fmt.Sprintf("%s%02dh %02dm", sign, hours, mins)
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
