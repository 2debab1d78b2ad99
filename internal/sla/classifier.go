package sla

import "github.com/spec-kit/sla-engine/internal/domain"

// JustBreached reports whether this evaluation crossed into BREACHED for the
// first time. Already-breached tickets stay silent.
func JustBreached(previous domain.SLAStatus, current TimerResult) bool {
	return previous != domain.SLAStatusBreached && current.IsBreached
}

// JustAtRisk reports whether this evaluation crossed from ON_TRACK into the
// warning band. Tickets already at risk, paused or met stay silent. A ticket
// with no recorded status yet is treated as ON_TRACK.
func JustAtRisk(previous domain.SLAStatus, current TimerResult) bool {
	if previous == "" {
		previous = domain.SLAStatusOnTrack
	}
	return previous == domain.SLAStatusOnTrack && current.IsAtRisk
}
