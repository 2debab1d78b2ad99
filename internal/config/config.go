package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	SLA      SLAConfig
	Monitor  MonitorConfig
	Notify   NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds connection values for the ticket store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines parameters for validating acknowledgement callers.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// SLAConfig holds the default policy windows per priority tier, in minutes.
type SLAConfig struct {
	WarningThresholdPercent   float64
	CriticalResponseMinutes   int
	CriticalResolutionMinutes int
	HighResponseMinutes       int
	HighResolutionMinutes     int
	MediumResponseMinutes     int
	MediumResolutionMinutes   int
	LowResponseMinutes        int
	LowResolutionMinutes      int
}

// MonitorConfig controls the breach monitor schedule.
type MonitorConfig struct {
	PollIntervalSeconds int
}

// NotifyConfig controls notification dispatch.
type NotifyConfig struct {
	Channels              []string
	WebhookURL            string
	EmailRecipients       []string
	SoundEnabled          bool
	GroupSimilar          bool
	ThrottleMinutes       int
	ThrottleBackend       string
	RetentionMinutes      int
	RetentionSweepMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "sla-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8081"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		SLA: SLAConfig{
			WarningThresholdPercent:   getEnvAsFloat("SLA_WARNING_THRESHOLD_PERCENT", 25),
			CriticalResponseMinutes:   getEnvAsInt("SLA_CRITICAL_RESPONSE_MINUTES", 15),
			CriticalResolutionMinutes: getEnvAsInt("SLA_CRITICAL_RESOLUTION_MINUTES", 120),
			HighResponseMinutes:       getEnvAsInt("SLA_HIGH_RESPONSE_MINUTES", 30),
			HighResolutionMinutes:     getEnvAsInt("SLA_HIGH_RESOLUTION_MINUTES", 480),
			MediumResponseMinutes:     getEnvAsInt("SLA_MEDIUM_RESPONSE_MINUTES", 60),
			MediumResolutionMinutes:   getEnvAsInt("SLA_MEDIUM_RESOLUTION_MINUTES", 1440),
			LowResponseMinutes:        getEnvAsInt("SLA_LOW_RESPONSE_MINUTES", 240),
			LowResolutionMinutes:      getEnvAsInt("SLA_LOW_RESOLUTION_MINUTES", 4320),
		},
		Monitor: MonitorConfig{
			PollIntervalSeconds: getEnvAsInt("SLA_POLL_INTERVAL_SECONDS", 30),
		},
		Notify: NotifyConfig{
			Channels:              splitList(getEnv("NOTIFY_CHANNELS", "toast,webhook")),
			WebhookURL:            os.Getenv("NOTIFY_WEBHOOK_URL"),
			EmailRecipients:       splitList(os.Getenv("NOTIFY_EMAIL_RECIPIENTS")),
			SoundEnabled:          getEnvAsBool("NOTIFY_SOUND_ENABLED", false),
			GroupSimilar:          getEnvAsBool("NOTIFY_GROUP_SIMILAR", true),
			ThrottleMinutes:       getEnvAsInt("NOTIFY_THROTTLE_MINUTES", 5),
			ThrottleBackend:       getEnv("NOTIFY_THROTTLE_BACKEND", "memory"),
			RetentionMinutes:      getEnvAsInt("NOTIFY_RETENTION_MINUTES", 240),
			RetentionSweepMinutes: getEnvAsInt("NOTIFY_RETENTION_SWEEP_MINUTES", 10),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the monitor pass interval.
func (m MonitorConfig) PollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// ThrottleWindow returns the minimum gap between notifications for the same
// ticket and alert type.
func (n NotifyConfig) ThrottleWindow() time.Duration {
	if n.ThrottleMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(n.ThrottleMinutes) * time.Minute
}

// Retention returns how long dispatched notifications are kept in memory.
func (n NotifyConfig) Retention() time.Duration {
	if n.RetentionMinutes <= 0 {
		return 4 * time.Hour
	}
	return time.Duration(n.RetentionMinutes) * time.Minute
}

// RetentionSweepInterval returns how often the retention sweep runs.
func (n NotifyConfig) RetentionSweepInterval() time.Duration {
	if n.RetentionSweepMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(n.RetentionSweepMinutes) * time.Minute
}

// DefaultPolicy materializes the configured windows as the tenant default
// SLA policy, used when a ticket carries no policy reference of its own.
func (s SLAConfig) DefaultPolicy() *domain.SLAPolicy {
	return &domain.SLAPolicy{
		ID:   "default",
		Name: "Default SLA policy",
		Targets: map[domain.TicketPriority]domain.SLATarget{
			domain.TicketPriorityCritical: {
				Response:   time.Duration(s.CriticalResponseMinutes) * time.Minute,
				Resolution: time.Duration(s.CriticalResolutionMinutes) * time.Minute,
			},
			domain.TicketPriorityHigh: {
				Response:   time.Duration(s.HighResponseMinutes) * time.Minute,
				Resolution: time.Duration(s.HighResolutionMinutes) * time.Minute,
			},
			domain.TicketPriorityMedium: {
				Response:   time.Duration(s.MediumResponseMinutes) * time.Minute,
				Resolution: time.Duration(s.MediumResolutionMinutes) * time.Minute,
			},
			domain.TicketPriorityLow: {
				Response:   time.Duration(s.LowResponseMinutes) * time.Minute,
				Resolution: time.Duration(s.LowResolutionMinutes) * time.Minute,
			},
		},
		WarningThresholdPercent: s.WarningThresholdPercent,
	}
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
