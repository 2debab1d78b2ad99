package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/events"
)

// ErrChannelNotConfigured marks a delivery skipped because the channel lacks
// required configuration. Other channels proceed regardless.
var ErrChannelNotConfigured = errors.New("channel not configured")

// Sender delivers a notification over one channel. Implementations are
// best-effort and independent: a failure is logged by the dispatcher, never
// surfaced to the alert producer.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, n *Notification) error
}

// toastSender re-publishes the notification on the in-process event bus; it
// is a no-fail local emission.
type toastSender struct {
	bus events.Dispatcher
}

// NewToastSender creates the in-app toast channel.
func NewToastSender(bus events.Dispatcher) Sender {
	return &toastSender{bus: bus}
}

func (s *toastSender) Channel() Channel { return ChannelToast }

func (s *toastSender) Send(ctx context.Context, n *Notification) error {
	return s.bus.Publish(ctx, events.Event{
		ID:        uuid.New().String(),
		Type:      events.EventSLANotificationSent,
		TicketID:  n.Alert.TicketID,
		Timestamp: n.SentAt,
		Payload:   n.Alert,
	})
}

// DesktopNotification is the platform-facing shape for the browser/OS channel.
type DesktopNotification struct {
	Title  string
	Body   string
	Tag    string
	Sticky bool
	Sound  bool
}

// Notifier is the platform capability behind the browser/OS channel.
type Notifier interface {
	PermissionGranted() bool
	Notify(ctx context.Context, dn DesktopNotification) error
}

type desktopSender struct {
	notifier     Notifier
	soundEnabled bool
	groupSimilar bool
}

// NewDesktopSender creates the browser/OS notification channel. Delivery is
// only attempted when platform permission has been granted; urgent alerts
// additionally request on-screen persistence and, when enabled, a sound cue.
func NewDesktopSender(notifier Notifier, soundEnabled, groupSimilar bool) Sender {
	return &desktopSender{notifier: notifier, soundEnabled: soundEnabled, groupSimilar: groupSimilar}
}

func (s *desktopSender) Channel() Channel { return ChannelBrowser }

func (s *desktopSender) Send(ctx context.Context, n *Notification) error {
	if s.notifier == nil || !s.notifier.PermissionGranted() {
		return ErrChannelNotConfigured
	}
	urgent := n.Priority == PriorityUrgent
	dn := DesktopNotification{
		Title:  fmt.Sprintf("SLA %s: %s", n.Alert.Type, n.Alert.TicketNumber),
		Body:   n.Alert.Message,
		Sticky: urgent,
		Sound:  urgent && s.soundEnabled,
	}
	if s.groupSimilar {
		dn.Tag = n.Alert.TicketID
	}
	return s.notifier.Notify(ctx, dn)
}

// LogNotifier is a Notifier that writes notifications to the log. It stands
// in for a real platform bridge in headless deployments.
type LogNotifier struct {
	logger  *zap.Logger
	granted bool
}

// NewLogNotifier creates a log-backed Notifier.
func NewLogNotifier(logger *zap.Logger, granted bool) *LogNotifier {
	return &LogNotifier{logger: logger, granted: granted}
}

func (l *LogNotifier) PermissionGranted() bool { return l.granted }

func (l *LogNotifier) Notify(_ context.Context, dn DesktopNotification) error {
	l.logger.Info("desktop notification",
		zap.String("title", dn.Title),
		zap.String("body", dn.Body),
		zap.Bool("sticky", dn.Sticky),
		zap.Bool("sound", dn.Sound))
	return nil
}

// EmailMessage is handed to the external mail-sending collaborator.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
}

// Mailer enqueues messages to the external mail transport.
type Mailer interface {
	Enqueue(ctx context.Context, msg EmailMessage) error
}

type emailSender struct {
	mailer     Mailer
	recipients []string
}

// NewEmailSender creates the email channel.
func NewEmailSender(mailer Mailer, recipients []string) Sender {
	return &emailSender{mailer: mailer, recipients: recipients}
}

func (s *emailSender) Channel() Channel { return ChannelEmail }

func (s *emailSender) Send(ctx context.Context, n *Notification) error {
	if s.mailer == nil || len(s.recipients) == 0 {
		return ErrChannelNotConfigured
	}
	msg := EmailMessage{
		To:      s.recipients,
		Subject: fmt.Sprintf("[SLA %s] Ticket %s", n.Alert.Type, n.Alert.TicketNumber),
		Body: fmt.Sprintf("%s\n\nPriority: %s\nDue: %s",
			n.Alert.Message, n.Alert.Priority, n.Alert.DueTime.Format(time.RFC3339)),
	}
	return s.mailer.Enqueue(ctx, msg)
}

// LogMailer is a Mailer that records enqueued mail in the log, standing in
// for the external transport in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-backed Mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Enqueue(_ context.Context, msg EmailMessage) error {
	m.logger.Info("email enqueued",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
