package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/monitor"
	"github.com/spec-kit/sla-engine/internal/notify"
)

// SLAWorker ties the breach monitor's alert stream to the notification
// dispatcher and runs the registry retention sweep.
type SLAWorker struct {
	logger     *zap.Logger
	bus        events.Dispatcher
	monitor    *monitor.BreachMonitor
	dispatcher *notify.Dispatcher
	retention  time.Duration
	sweepEvery time.Duration

	unsubscribe []func()
	cron        *cron.Cron
}

// NewSLAWorker wires the engine components together.
func NewSLAWorker(logger *zap.Logger, bus events.Dispatcher, m *monitor.BreachMonitor, d *notify.Dispatcher, retention, sweepEvery time.Duration) *SLAWorker {
	return &SLAWorker{
		logger:     logger,
		bus:        bus,
		monitor:    m,
		dispatcher: d,
		retention:  retention,
		sweepEvery: sweepEvery,
	}
}

// Start subscribes the dispatcher to the alert stream, starts monitoring and
// schedules the retention sweep.
func (w *SLAWorker) Start(ctx context.Context) error {
	handle := func(ctx context.Context, event events.Event) error {
		alert, ok := event.Payload.(domain.SLABreachAlert)
		if !ok {
			w.logger.Warn("unexpected alert payload", zap.String("event_id", event.ID))
			return nil
		}
		w.dispatcher.HandleAlert(ctx, alert)
		return nil
	}
	w.unsubscribe = append(w.unsubscribe,
		w.bus.Subscribe(events.EventSLABreach, handle),
		w.bus.Subscribe(events.EventSLAWarning, handle),
	)

	if err := w.monitor.Start(ctx); err != nil {
		return err
	}

	w.cron = cron.New()
	if _, err := w.cron.AddFunc("@every "+w.sweepEvery.String(), func() {
		removed := w.dispatcher.ClearOld(ctx, w.retention)
		if removed > 0 {
			w.logger.Info("retention sweep", zap.Int("removed", removed))
		}
	}); err != nil {
		return err
	}
	w.cron.Start()
	return nil
}

// Stop halts monitoring and the retention sweep. In-flight deliveries of
// already-emitted alerts are allowed to complete.
func (w *SLAWorker) Stop() {
	w.monitor.Stop()
	if w.cron != nil {
		w.cron.Stop()
		w.cron = nil
	}
	for _, unsub := range w.unsubscribe {
		unsub()
	}
	w.unsubscribe = nil
}
