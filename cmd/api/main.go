package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/monitor"
	"github.com/spec-kit/sla-engine/internal/notify"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	"github.com/spec-kit/sla-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := observability.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	clock := sla.SystemClock()
	bus := events.NewInMemoryDispatcher()
	ticketSource := repository.NewTicketSource(pg.PoolHandle())

	var throttle notify.ThrottleIndex
	if cfg.Notify.ThrottleBackend == "redis" {
		throttle = notify.NewRedisThrottle(redis.Client, cfg.Notify.ThrottleWindow())
	} else {
		throttle = notify.NewMemoryThrottle()
	}

	channels := make([]notify.Channel, 0, len(cfg.Notify.Channels))
	for _, ch := range cfg.Notify.Channels {
		channels = append(channels, notify.Channel(ch))
	}

	dispatcher := notify.NewDispatcher(logger.Named("notify"),
		notify.Config{
			Channels:       channels,
			ThrottleWindow: cfg.Notify.ThrottleWindow(),
		},
		clock,
		throttle,
		notify.NewToastSender(bus),
		notify.NewWebhookSender(cfg.Notify.WebhookURL, &http.Client{Timeout: 10 * time.Second}),
		notify.NewEmailSender(notify.NewLogMailer(logger.Named("mailer")), cfg.Notify.EmailRecipients),
		notify.NewDesktopSender(notify.NewLogNotifier(logger.Named("desktop"), true), cfg.Notify.SoundEnabled, cfg.Notify.GroupSimilar),
	)

	breachMonitor := monitor.New(logger.Named("monitor"),
		monitor.Config{
			PollInterval:  cfg.Monitor.PollInterval(),
			DefaultPolicy: cfg.SLA.DefaultPolicy(),
		},
		clock, bus,
		ticketSource.FetchOpenTickets,
		ticketSource.PersistSLAStatus,
	)

	slaWorker := worker.NewSLAWorker(logger.Named("worker"), bus, breachMonitor, dispatcher,
		cfg.Notify.Retention(), cfg.Notify.RetentionSweepInterval())
	if err := slaWorker.Start(ctx); err != nil {
		logger.Fatal("failed to start sla worker", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, breachMonitor),
		Notifications:  handlers.NewNotificationsHandler(dispatcher),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	slaWorker.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
