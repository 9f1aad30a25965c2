package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fastygo/auraplan/domain"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Local       LocalConfig
	Remote      RemoteConfig
	Sync        SyncConfig
	Reminders   ReminderConfig
	Digest      DigestConfig
	Notify      NotifyConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	Enabled    bool
	URL        string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// LocalConfig locates the on-device store.
type LocalConfig struct {
	Path     string
	MaxBytes int
	Timezone string
}

// RemoteConfig selects the document store used by sync.
type RemoteConfig struct {
	Driver string
}

type SyncConfig struct {
	Interval        time.Duration
	Timeout         time.Duration
	MonitorInterval time.Duration
	MergePolicy     domain.MergePolicy
	FailurePolicy   domain.FailurePolicy
}

type ReminderConfig struct {
	Retention     time.Duration
	PruneSchedule string
}

type DigestConfig struct {
	Enabled          bool
	DailySchedule    string
	UpcomingSchedule string
	UpcomingWindow   time.Duration
	// MotivationSchedule is empty to disable the morning message.
	MotivationSchedule string
}

type NotifyConfig struct {
	WebsocketPort int
	NATSURL       string
	NATSSubject   string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level      string
	Encoding   string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "auraplan"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "auraplan"),
			User:            getString("DB_USER", "auraplan"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:    getBool("REDIS_ENABLED", true),
			URL:        getString("REDIS_URL", "redis://localhost:6379"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         getInt("REDIS_DB", 0),
			SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "auraplan"),
		},
		Local: LocalConfig{
			Path:     getString("LOCAL_STORE_PATH", "./data/auraplan.db"),
			MaxBytes: getInt("LOCAL_MAX_BYTES", 5*1024*1024),
			Timezone: getString("APP_TIMEZONE", "Local"),
		},
		Remote: RemoteConfig{
			Driver: getString("REMOTE_DRIVER", "postgres"),
		},
		Sync: SyncConfig{
			Interval:        getDuration("SYNC_INTERVAL", 5*time.Minute),
			Timeout:         getDuration("SYNC_TIMEOUT", 30*time.Second),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
			MergePolicy:     domain.MergePolicy(getString("SYNC_MERGE_POLICY", string(domain.MergeNewest))),
			FailurePolicy:   domain.FailurePolicy(getString("SYNC_FAILURE_POLICY", string(domain.FailFast))),
		},
		Reminders: ReminderConfig{
			Retention:     getDuration("REMINDER_RETENTION", 7*24*time.Hour),
			PruneSchedule: getString("REMINDER_PRUNE_SCHEDULE", "@every 1h"),
		},
		Digest: DigestConfig{
			Enabled:            getBool("DIGEST_ENABLED", true),
			DailySchedule:      getString("DIGEST_DAILY_SCHEDULE", "0 20 * * *"),
			UpcomingSchedule:   getString("DIGEST_UPCOMING_SCHEDULE", "@every 4h"),
			UpcomingWindow:     getDuration("DIGEST_UPCOMING_WINDOW", 24*time.Hour),
			MotivationSchedule: getString("DIGEST_MOTIVATION_SCHEDULE", "0 9 * * *"),
		},
		Notify: NotifyConfig{
			WebsocketPort: getInt("NOTIFY_WS_PORT", 0),
			NATSURL:       os.Getenv("NATS_URL"),
			NATSSubject:   getString("NATS_SUBJECT", "auraplan.notifications"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:      getString("LOG_LEVEL", "info"),
			Encoding:   getString("LOG_ENCODING", "json"),
			FilePath:   os.Getenv("LOG_FILE"),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 14),
			Compress:   getBool("LOG_COMPRESS", true),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown REMOTE_DRIVER %q", c.Remote.Driver)
	}
	switch c.Sync.MergePolicy {
	case domain.MergeNewest, domain.MergeReplace:
	default:
		return fmt.Errorf("config: unknown SYNC_MERGE_POLICY %q", c.Sync.MergePolicy)
	}
	switch c.Sync.FailurePolicy {
	case domain.FailFast, domain.Independent:
	default:
		return fmt.Errorf("config: unknown SYNC_FAILURE_POLICY %q", c.Sync.FailurePolicy)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves the timezone used to interpret due dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Local.Timezone == "" || c.Local.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Local.Timezone)
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
