package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// Listener observes dispatched notifications in-process.
type Listener func(*Notification)

// Config controls dispatch behavior.
type Config struct {
	Channels       []Channel
	ThrottleWindow time.Duration
}

// Dispatcher delivers alerts across configured channels with per-ticket
// throttling. The notification registry and the throttle index are the only
// mutable shared state; both are owned here exclusively.
type Dispatcher struct {
	logger   *zap.Logger
	cfg      Config
	clock    sla.Clock
	throttle ThrottleIndex
	senders  map[Channel]Sender

	mu           sync.Mutex
	registry     map[string]*Notification
	listeners    map[int]Listener
	nextListener int
}

// NewDispatcher constructs a dispatcher over the given channel senders.
func NewDispatcher(logger *zap.Logger, cfg Config, clock sla.Clock, throttle ThrottleIndex, senders ...Sender) *Dispatcher {
	if clock == nil {
		clock = sla.SystemClock()
	}
	if throttle == nil {
		throttle = NewMemoryThrottle()
	}
	if cfg.ThrottleWindow <= 0 {
		cfg.ThrottleWindow = 5 * time.Minute
	}
	byChannel := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Dispatcher{
		logger:    logger,
		cfg:       cfg,
		clock:     clock,
		throttle:  throttle,
		senders:   byChannel,
		registry:  make(map[string]*Notification),
		listeners: make(map[int]Listener),
	}
}

// AddListener registers an in-process observer and returns an unsubscribe
// handle.
func (d *Dispatcher) AddListener(l Listener) func() {
	d.mu.Lock()
	d.nextListener++
	id := d.nextListener
	d.listeners[id] = l
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// HandleAlert delivers one alert across the configured channels. It never
// returns delivery errors: channel failures are isolated and logged. The
// notification is stored in the registry before any delivery is attempted,
// so it stays queryable even when every channel fails.
func (d *Dispatcher) HandleAlert(ctx context.Context, alert domain.SLABreachAlert) {
	now := d.clock.Now()
	key := throttleKey(alert.TicketID, alert.Type)

	throttled, err := d.throttle.Claim(ctx, key, d.cfg.ThrottleWindow, now)
	if err != nil {
		// throttle backend unreachable: prefer a duplicate notification
		// over a silently dropped one
		d.logger.Warn("throttle claim failed", zap.String("key", key), zap.Error(err))
	} else if throttled {
		observability.ObserveThrottled()
		d.logger.Debug("notification throttled",
			zap.String("ticket_id", alert.TicketID),
			zap.String("alert_type", string(alert.Type)))
		return
	}

	n := &Notification{
		ID:       uuid.New().String(),
		Alert:    alert,
		Channels: append([]Channel{}, d.cfg.Channels...),
		Priority: computePriority(alert),
		SentAt:   now,
	}

	d.mu.Lock()
	d.registry[n.ID] = n
	d.mu.Unlock()

	d.fanOut(ctx, n)
	d.notifyListeners(n)
}

// fanOut attempts delivery to every configured channel concurrently and
// independently, waiting for all attempts and ignoring individual failures.
func (d *Dispatcher) fanOut(ctx context.Context, n *Notification) {
	var wg sync.WaitGroup
	for _, ch := range n.Channels {
		sender, ok := d.senders[ch]
		if !ok {
			observability.ObserveDelivery(string(ch), observability.OutcomeSkipped)
			d.logger.Debug("no sender for channel", zap.String("channel", string(ch)))
			continue
		}
		wg.Add(1)
		go func(sender Sender) {
			defer wg.Done()
			err := sender.Send(ctx, n)
			switch {
			case errors.Is(err, ErrChannelNotConfigured):
				observability.ObserveDelivery(string(sender.Channel()), observability.OutcomeSkipped)
				d.logger.Debug("channel skipped",
					zap.String("channel", string(sender.Channel())),
					zap.String("notification_id", n.ID))
			case err != nil:
				observability.ObserveDelivery(string(sender.Channel()), observability.OutcomeError)
				d.logger.Warn("channel delivery failed",
					zap.String("channel", string(sender.Channel())),
					zap.String("notification_id", n.ID),
					zap.Error(err))
			default:
				observability.ObserveDelivery(string(sender.Channel()), observability.OutcomeOK)
			}
		}(sender)
	}
	wg.Wait()
}

func (d *Dispatcher) notifyListeners(n *Notification) {
	d.mu.Lock()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		listeners = append(listeners, l)
	}
	d.mu.Unlock()

	for _, l := range listeners {
		l(n)
	}
}

// Acknowledge records the acknowledging actor on a notification. It returns
// false when the id is unknown.
func (d *Dispatcher) Acknowledge(id, actorID string) bool {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.registry[id]
	if !ok {
		return false
	}
	if n.AcknowledgedAt == nil {
		n.AcknowledgedAt = &now
		n.AcknowledgedBy = &actorID
	}
	return true
}

// UnacknowledgedCount returns the number of notifications awaiting
// acknowledgement.
func (d *Dispatcher) UnacknowledgedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, n := range d.registry {
		if !n.Acknowledged() {
			count++
		}
	}
	return count
}

// Notifications returns registry entries, newest first, optionally limited
// to unacknowledged ones.
func (d *Dispatcher) Notifications(unacknowledgedOnly bool) []Notification {
	d.mu.Lock()
	out := make([]Notification, 0, len(d.registry))
	for _, n := range d.registry {
		if unacknowledgedOnly && n.Acknowledged() {
			continue
		}
		out = append(out, *n)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out
}

// ClearOld purges registry and throttle entries older than the cutoff,
// bounding memory growth of the in-memory store. It returns the number of
// notifications removed.
func (d *Dispatcher) ClearOld(ctx context.Context, olderThan time.Duration) int {
	cutoff := d.clock.Now().Add(-olderThan)

	d.mu.Lock()
	removed := 0
	for id, n := range d.registry {
		if n.SentAt.Before(cutoff) {
			delete(d.registry, id)
			removed++
		}
	}
	d.mu.Unlock()

	if err := d.throttle.Prune(ctx, cutoff); err != nil {
		d.logger.Warn("throttle prune failed", zap.Error(err))
	}
	return removed
}

func throttleKey(ticketID string, alertType domain.AlertType) string {
	return ticketID + "|" + string(alertType)
}
