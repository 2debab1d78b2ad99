package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSender struct {
	channel Channel
	err     error

	mu   sync.Mutex
	sent []*Notification
}

func (s *recordingSender) Channel() Channel { return s.channel }

func (s *recordingSender) Send(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func testAlert(ticketID string, alertType domain.AlertType) domain.SLABreachAlert {
	return domain.SLABreachAlert{
		ID:           "alert-" + ticketID,
		TicketID:     ticketID,
		TicketNumber: "TCK-" + ticketID,
		Type:         alertType,
		Severity:     domain.AlertSeverityCritical,
		Message:      "Ticket TCK-" + ticketID + " breached its resolution SLA",
		Priority:     domain.TicketPriorityHigh,
		DueTime:      time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC),
	}
}

func newTestDispatcher(clock *fakeClock, senders ...Sender) *Dispatcher {
	channels := make([]Channel, 0, len(senders))
	for _, s := range senders {
		channels = append(channels, s.Channel())
	}
	return NewDispatcher(zap.NewNop(),
		Config{Channels: channels, ThrottleWindow: 5 * time.Minute},
		clock, NewMemoryThrottle(), senders...)
}

func TestDispatcher_ThrottlesDuplicateAlerts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, toast)

	ctx := context.Background()
	alert := testAlert("1", domain.AlertTypeBreach)

	d.HandleAlert(ctx, alert)
	d.HandleAlert(ctx, alert)
	require.Equal(t, 1, toast.count())
	require.Len(t, d.Notifications(false), 1)

	// a third alert after the throttle window elapses is delivered again
	clock.Advance(6 * time.Minute)
	d.HandleAlert(ctx, alert)
	require.Equal(t, 2, toast.count())
}

func TestDispatcher_ThrottleKeyedByAlertType(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, toast)

	ctx := context.Background()
	d.HandleAlert(ctx, testAlert("1", domain.AlertTypeWarning))
	d.HandleAlert(ctx, testAlert("1", domain.AlertTypeBreach))
	require.Equal(t, 2, toast.count())
}

func TestDispatcher_ChannelFailureIsolated(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	webhook := &recordingSender{channel: ChannelWebhook, err: errors.New("connection refused")}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, webhook, toast)

	// must not panic or surface the webhook failure
	d.HandleAlert(context.Background(), testAlert("1", domain.AlertTypeBreach))

	require.Equal(t, 1, toast.count())
	// the notification is queryable even though one channel failed
	notifications := d.Notifications(false)
	require.Len(t, notifications, 1)
	require.Equal(t, "1", notifications[0].Alert.TicketID)
}

func TestDispatcher_NotConfiguredChannelSkipped(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	webhook := &recordingSender{channel: ChannelWebhook, err: ErrChannelNotConfigured}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, webhook, toast)

	d.HandleAlert(context.Background(), testAlert("1", domain.AlertTypeBreach))
	require.Equal(t, 1, toast.count())
	require.Len(t, d.Notifications(false), 1)
}

func TestDispatcher_Acknowledge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, toast)

	d.HandleAlert(context.Background(), testAlert("1", domain.AlertTypeBreach))
	notifications := d.Notifications(false)
	require.Len(t, notifications, 1)
	require.Equal(t, 1, d.UnacknowledgedCount())

	require.True(t, d.Acknowledge(notifications[0].ID, "staff-7"))
	require.Equal(t, 0, d.UnacknowledgedCount())

	acked := d.Notifications(false)
	require.NotNil(t, acked[0].AcknowledgedAt)
	require.Equal(t, "staff-7", *acked[0].AcknowledgedBy)

	// unknown id reports failure to the caller, not an error
	require.False(t, d.Acknowledge("nope", "staff-7"))

	require.Empty(t, d.Notifications(true))
}

func TestDispatcher_ListenersNotified(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, toast)

	var seen []*Notification
	unsubscribe := d.AddListener(func(n *Notification) {
		seen = append(seen, n)
	})

	d.HandleAlert(context.Background(), testAlert("1", domain.AlertTypeBreach))
	require.Len(t, seen, 1)
	require.Equal(t, PriorityUrgent, seen[0].Priority)

	unsubscribe()
	d.HandleAlert(context.Background(), testAlert("2", domain.AlertTypeBreach))
	require.Len(t, seen, 1)
}

func TestDispatcher_ClearOld(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	toast := &recordingSender{channel: ChannelToast}
	d := newTestDispatcher(clock, toast)

	ctx := context.Background()
	d.HandleAlert(ctx, testAlert("1", domain.AlertTypeBreach))
	clock.Advance(3 * time.Hour)
	d.HandleAlert(ctx, testAlert("2", domain.AlertTypeBreach))

	removed := d.ClearOld(ctx, 2*time.Hour)
	require.Equal(t, 1, removed)

	remaining := d.Notifications(false)
	require.Len(t, remaining, 1)
	require.Equal(t, "2", remaining[0].Alert.TicketID)
}

func TestComputePriority(t *testing.T) {
	cases := []struct {
		alertType domain.AlertType
		priority  domain.TicketPriority
		want      Priority
	}{
		{domain.AlertTypeBreach, domain.TicketPriorityCritical, PriorityUrgent},
		{domain.AlertTypeBreach, domain.TicketPriorityHigh, PriorityUrgent},
		{domain.AlertTypeBreach, domain.TicketPriorityLow, PriorityHigh},
		{domain.AlertTypeWarning, domain.TicketPriorityCritical, PriorityHigh},
		{domain.AlertTypeWarning, domain.TicketPriorityMedium, PriorityNormal},
	}
	for _, tc := range cases {
		alert := testAlert("1", tc.alertType)
		alert.Priority = tc.priority
		require.Equal(t, tc.want, computePriority(alert), "%s/%s", tc.alertType, tc.priority)
	}
}
