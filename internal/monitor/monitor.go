package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// TicketFetcher returns the current open-ticket working set. The engine has
// no knowledge of how tickets are stored.
type TicketFetcher func(ctx context.Context) ([]domain.Ticket, error)

// StatusPersister asks the external ticket store to durably record a new SLA
// status. The store must persist it before the next pass reads the ticket
// again, or duplicate alerts will be emitted.
type StatusPersister func(ctx context.Context, ticketID string, status domain.SLAStatus) error

// Config controls the monitoring schedule. The poll interval must be
// materially shorter than the smallest configured response window so that
// breaches are detected within a bounded latency.
type Config struct {
	PollInterval  time.Duration
	DefaultPolicy *domain.SLAPolicy
}

// BreachMonitor re-evaluates open tickets on a recurring schedule and emits
// one alert per detected transition into AT_RISK or BREACHED.
type BreachMonitor struct {
	logger  *zap.Logger
	cfg     Config
	clock   sla.Clock
	bus     events.Dispatcher
	fetch   TicketFetcher
	persist StatusPersister

	mu      sync.Mutex
	running bool
	cron    *cron.Cron

	// passMu serializes evaluation passes; the immediate pass at start and
	// the first scheduled tick may otherwise overlap.
	passMu sync.Mutex
}

// cronLogger adapts zap.Logger to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// New constructs a breach monitor. The fetcher and persister are injected
// collaborators; the bus receives the emitted alerts.
func New(logger *zap.Logger, cfg Config, clock sla.Clock, bus events.Dispatcher, fetch TicketFetcher, persist StatusPersister) *BreachMonitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if clock == nil {
		clock = sla.SystemClock()
	}
	return &BreachMonitor{
		logger:  logger,
		cfg:     cfg,
		clock:   clock,
		bus:     bus,
		fetch:   fetch,
		persist: persist,
	}
}

// Start runs one immediate evaluation pass and schedules recurring passes.
// Calling Start on a running monitor is a no-op.
func (m *BreachMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("breach monitor already running")
		return nil
	}

	lg := &cronLogger{logger: m.logger.Named("cron")}
	c := cron.New(cron.WithChain(cron.Recover(lg), cron.SkipIfStillRunning(lg)))
	spec := fmt.Sprintf("@every %s", m.cfg.PollInterval)
	if _, err := c.AddFunc(spec, func() { m.runPass(ctx) }); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("schedule monitor pass: %w", err)
	}
	m.cron = c
	m.running = true
	m.mu.Unlock()

	go m.runPass(ctx)
	c.Start()

	m.logger.Info("breach monitor started", zap.Duration("interval", m.cfg.PollInterval))
	return nil
}

// Stop cancels the recurring schedule without waiting for an in-flight pass.
// It is idempotent.
func (m *BreachMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.cron.Stop()
	m.cron = nil
	m.running = false
	m.logger.Info("breach monitor stopped")
}

// Running reports whether the monitor schedule is active.
func (m *BreachMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// runPass executes one evaluation pass. Failures are logged and swallowed;
// the next tick retries independently.
func (m *BreachMonitor) runPass(ctx context.Context) {
	if !m.passMu.TryLock() {
		observability.ObserveMonitorPass(observability.OutcomeSkipped)
		return
	}
	defer m.passMu.Unlock()

	// all tickets in one pass share the same now, so a pass is deterministic
	now := m.clock.Now()

	tickets, err := m.fetch(ctx)
	if err != nil {
		observability.ObserveMonitorPass(observability.OutcomeError)
		m.logger.Warn("ticket fetch failed", zap.Error(err))
		return
	}

	for i := range tickets {
		m.evaluateTicket(ctx, &tickets[i], now)
	}
	observability.ObserveMonitorPass(observability.OutcomeOK)
}

func (m *BreachMonitor) evaluateTicket(ctx context.Context, t *domain.Ticket, now time.Time) {
	if t.Status.IsTerminal() || t.Status.IsSLAPaused() {
		return
	}
	if t.SLAResolutionDue == nil {
		// due time not yet computed upstream
		return
	}

	policy := t.Policy
	if policy == nil {
		policy = m.cfg.DefaultPolicy
	}

	result := sla.Evaluate(*t.SLAResolutionDue, t.Priority, policy, t.Status, now)

	switch {
	case sla.JustBreached(t.SLAStatus, result):
		m.emitAlert(ctx, t, domain.AlertTypeBreach, result, now)
	case sla.JustAtRisk(t.SLAStatus, result):
		m.emitAlert(ctx, t, domain.AlertTypeWarning, result, now)
	}

	if result.Status != t.SLAStatus && m.persist != nil {
		if err := m.persist(ctx, t.ID, result.Status); err != nil {
			m.logger.Warn("sla status writeback failed",
				zap.String("ticket_id", t.ID),
				zap.String("status", string(result.Status)),
				zap.Error(err))
		}
	}
}

func (m *BreachMonitor) emitAlert(ctx context.Context, t *domain.Ticket, alertType domain.AlertType, result sla.TimerResult, now time.Time) {
	alert := domain.SLABreachAlert{
		ID:           uuid.New().String(),
		TicketID:     t.ID,
		TicketNumber: t.Number,
		Type:         alertType,
		Severity:     alertSeverity(alertType),
		Message:      alertMessage(t.Number, alertType, result),
		Timestamp:    now,
		Priority:     t.Priority,
		AssigneeID:   t.AssigneeID,
		DueTime:      *t.SLAResolutionDue,
	}

	event := events.Event{
		ID:        alert.ID,
		Type:      events.AlertEventType(alertType),
		TicketID:  t.ID,
		Timestamp: now,
		Payload:   alert,
	}
	if err := m.bus.Publish(ctx, event); err != nil {
		m.logger.Warn("alert publish failed", zap.String("ticket_id", t.ID), zap.Error(err))
		return
	}

	observability.ObserveAlert(string(alertType))
	m.logger.Info("sla alert emitted",
		zap.String("ticket_id", t.ID),
		zap.String("ticket_number", t.Number),
		zap.String("type", string(alertType)),
		zap.String("remaining", result.RemainingDisplay))
}

func alertSeverity(t domain.AlertType) domain.AlertSeverity {
	if t == domain.AlertTypeBreach {
		return domain.AlertSeverityCritical
	}
	return domain.AlertSeverityWarning
}

func alertMessage(number string, t domain.AlertType, result sla.TimerResult) string {
	if t == domain.AlertTypeBreach {
		overdue := strings.TrimPrefix(result.RemainingDisplay, "-")
		return fmt.Sprintf("Ticket %s breached its resolution SLA (overdue by %s)", number, overdue)
	}
	return fmt.Sprintf("Ticket %s is at risk: %s remaining (%.0f%% of window)",
		number, result.RemainingDisplay, result.PercentRemaining)
}
