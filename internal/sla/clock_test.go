package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func testPolicy() *domain.SLAPolicy {
	return &domain.SLAPolicy{
		ID:   "p1",
		Name: "standard",
		Targets: map[domain.TicketPriority]domain.SLATarget{
			domain.TicketPriorityCritical: {Response: 15 * time.Minute, Resolution: 2 * time.Hour},
			domain.TicketPriorityHigh:     {Response: 30 * time.Minute, Resolution: 480 * time.Minute},
			domain.TicketPriorityMedium:   {Response: time.Hour, Resolution: 24 * time.Hour},
			domain.TicketPriorityLow:      {Response: 4 * time.Hour, Resolution: 72 * time.Hour},
		},
		WarningThresholdPercent: 25,
	}
}

func TestResolveWindow(t *testing.T) {
	policy := testPolicy()

	require.Equal(t, 15*time.Minute, ResolveWindow(domain.TicketPriorityCritical, policy, WindowResponse))
	require.Equal(t, 480*time.Minute, ResolveWindow(domain.TicketPriorityHigh, policy, WindowResolution))

	// unknown priority falls back to the MEDIUM tier
	require.Equal(t, time.Hour, ResolveWindow("BLOCKER", policy, WindowResponse))
	require.Equal(t, 24*time.Hour, ResolveWindow("", policy, WindowResolution))

	require.Equal(t, time.Duration(0), ResolveWindow(domain.TicketPriorityHigh, nil, WindowResolution))
}

func TestDeadline(t *testing.T) {
	policy := testPolicy()
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	due := Deadline(createdAt, domain.TicketPriorityHigh, policy, WindowResolution)
	require.Equal(t, createdAt.Add(480*time.Minute), due)

	response := Deadline(createdAt, domain.TicketPriorityCritical, policy, WindowResponse)
	require.Equal(t, createdAt.Add(15*time.Minute), response)
}

func TestEvaluate_PausedStatuses(t *testing.T) {
	policy := testPolicy()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	// due far in the past: PAUSED still wins over a would-be breach
	due := now.Add(-48 * time.Hour)

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusWaitingOnCustomer,
		domain.TicketStatusWaitingOnThirdParty,
	} {
		result := Evaluate(due, domain.TicketPriorityHigh, policy, status, now)
		require.Equal(t, domain.SLAStatusPaused, result.Status, "status %s", status)
		require.Equal(t, 0, result.RemainingMinutes)
		require.Equal(t, 100.0, result.PercentRemaining)
		require.False(t, result.IsBreached)
		require.False(t, result.IsAtRisk)
	}
}

func TestEvaluate_TerminalStatuses(t *testing.T) {
	policy := testPolicy()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(-48 * time.Hour)

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	} {
		result := Evaluate(due, domain.TicketPriorityHigh, policy, status, now)
		require.Equal(t, domain.SLAStatusMet, result.Status, "status %s", status)
		require.False(t, result.IsBreached)
		require.Equal(t, 100.0, result.PercentRemaining)
	}
}

func TestEvaluate_Breached(t *testing.T) {
	policy := testPolicy()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(-185 * time.Minute)

	result := Evaluate(due, domain.TicketPriorityHigh, policy, domain.TicketStatusOpen, now)
	require.True(t, result.IsBreached)
	require.Equal(t, domain.SLAStatusBreached, result.Status)
	require.Equal(t, -185, result.RemainingMinutes)
	require.Equal(t, "-03h 05m", result.RemainingDisplay)
	require.Equal(t, 0.0, result.PercentRemaining)
}

func TestEvaluate_AtRisk(t *testing.T) {
	policy := testPolicy()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	// HIGH resolution window is 480m; 100m remaining sits under the 25% band
	due := now.Add(100 * time.Minute)

	result := Evaluate(due, domain.TicketPriorityHigh, policy, domain.TicketStatusInProgress, now)
	require.False(t, result.IsBreached)
	require.True(t, result.IsAtRisk)
	require.Equal(t, domain.SLAStatusAtRisk, result.Status)
	require.InDelta(t, 20.8, result.PercentRemaining, 0.1)
}

func TestEvaluate_OnTrack(t *testing.T) {
	policy := testPolicy()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(400 * time.Minute)

	result := Evaluate(due, domain.TicketPriorityHigh, policy, domain.TicketStatusOpen, now)
	require.Equal(t, domain.SLAStatusOnTrack, result.Status)
	require.False(t, result.IsBreached)
	require.False(t, result.IsAtRisk)
	require.InDelta(t, 83.3, result.PercentRemaining, 0.1)
}

func TestEvaluate_PercentClamped(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// contrived negative-window policy forces the fallback horizon and the
	// percent must still land inside [0, 100]
	broken := &domain.SLAPolicy{
		ID: "broken",
		Targets: map[domain.TicketPriority]domain.SLATarget{
			domain.TicketPriorityMedium: {Resolution: -time.Hour},
		},
		WarningThresholdPercent: 25,
	}

	cases := []time.Time{
		now.Add(-1000 * time.Hour),
		now.Add(-time.Minute),
		now,
		now.Add(time.Minute),
		now.Add(1000 * time.Hour),
	}
	for _, due := range cases {
		result := Evaluate(due, domain.TicketPriorityMedium, broken, domain.TicketStatusOpen, now)
		require.GreaterOrEqual(t, result.PercentRemaining, 0.0, "due %s", due)
		require.LessOrEqual(t, result.PercentRemaining, 100.0, "due %s", due)
	}
}

func TestEvaluate_NilPolicyUsesFallback(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)

	result := Evaluate(due, domain.TicketPriorityHigh, nil, domain.TicketStatusOpen, now)
	require.False(t, result.IsBreached)
	require.GreaterOrEqual(t, result.PercentRemaining, 0.0)
	require.LessOrEqual(t, result.PercentRemaining, 100.0)
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{-185, "-03h 05m"},
		{45, "45m"},
		{0, "0m"},
		{-45, "-45m"},
		{125, "02h 05m"},
		{60, "01h 00m"},
		{-60, "-01h 00m"},
		{1505, "25h 05m"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatRemaining(tc.minutes), "minutes %d", tc.minutes)
	}
}
