package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Auth      AuthConfig      `koanf:"auth"`
	Reminders RemindersConfig `koanf:"reminders"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr"`
	CORSOrigins    []string `koanf:"cors_origins"`
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver     string        `koanf:"driver"`
	URL        string        `koanf:"url"`
	Host       string        `koanf:"host"`
	Port       string        `koanf:"port"`
	User       string        `koanf:"user"`
	Password   string        `koanf:"password"`
	Name       string        `koanf:"name"`
	SSLMode    string        `koanf:"ssl_mode"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	OpTimeout  time.Duration `koanf:"op_timeout"`
	LogSQL     bool          `koanf:"log_sql"`
}

type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	Username     string        `koanf:"username"`
	PasswordHash string        `koanf:"password_hash"` // bcrypt
	Password     string        `koanf:"password"`      // plaintext fallback for local development
	LoginRate    float64       `koanf:"login_rate"`    // tokens per second
	LoginBurst   int           `koanf:"login_burst"`
}

type RemindersConfig struct {
	TimeLocation string `koanf:"time_location"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var defaults = map[string]any{
	"server.addr":             ":5000",
	"server.cors_origins":     []string{"*"},
	"server.trusted_proxies":  []string{"127.0.0.1"},
	"database.driver":         DriverPostgres,
	"database.host":           "localhost",
	"database.port":           "5432",
	"database.user":           "admin",
	"database.name":           "reminders_db",
	"database.ssl_mode":       "disable",
	"database.max_retries":    10,
	"database.retry_delay":    "2s",
	"database.op_timeout":     "5s",
	"scheduler.enabled":       true,
	"scheduler.interval":      "5s",
	"auth.token_ttl":          "30m",
	"auth.username":           "admin",
	"auth.login_rate":         1.0,
	"auth.login_burst":        5,
	"reminders.time_location": "Local",
	"log.level":               "info",
	"log.format":              "console",
}

// envKeys maps the environment variables we recognize to config keys
var envKeys = map[string]string{
	"PORT":               "server.port",
	"SERVER_ADDR":        "server.addr",
	"CORS_ORIGINS":       "server.cors_origins",
	"DB_DRIVER":          "database.driver",
	"DATABASE_URL":       "database.url",
	"DB_HOST":            "database.host",
	"DB_PORT":            "database.port",
	"DB_USER":            "database.user",
	"DB_PASSWORD":        "database.password",
	"DB_NAME":            "database.name",
	"DB_SSL_MODE":        "database.ssl_mode",
	"DB_MAX_RETRIES":     "database.max_retries",
	"DB_RETRY_DELAY":     "database.retry_delay",
	"DB_OP_TIMEOUT":      "database.op_timeout",
	"DB_LOG_SQL":         "database.log_sql",
	"SCHEDULER_ENABLED":  "scheduler.enabled",
	"SCHEDULER_INTERVAL": "scheduler.interval",
	"JWT_SECRET":         "auth.jwt_secret",
	"JWT_EXPIRY":         "auth.token_ttl",
	"AUTH_USERNAME":      "auth.username",
	"AUTH_PASSWORD_HASH": "auth.password_hash",
	"AUTH_PASSWORD":      "auth.password",
	"LOGIN_RATE":         "auth.login_rate",
	"LOGIN_BURST":        "auth.login_burst",
	"TRIGGER_TIMEZONE":   "reminders.time_location",
	"LOG_LEVEL":          "log.level",
	"LOG_FORMAT":         "log.format",
}

// Load reads configuration from defaults, an optional YAML file and the environment,
// in that order of precedence (later wins). A .env file in the working directory
// is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// PORT is the platform convention; it only sets the port part of the bind address
	if port := k.String("server.port"); port != "" && os.Getenv("SERVER_ADDR") == "" {
		if err := k.Set("server.addr", ":"+strings.TrimPrefix(port, ":")); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.URL == "" {
		return errors.New("database.url (DATABASE_URL) must name a file for the sqlite driver")
	}
	if c.Database.OpTimeout <= 0 {
		return errors.New("database.op_timeout must be positive")
	}
	if c.Database.MaxRetries < 1 {
		return errors.New("database.max_retries must be at least 1")
	}
	// cron's @every schedules have one second resolution
	if c.Scheduler.Interval < time.Second {
		return errors.New("scheduler.interval must be at least 1s")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst < 1 {
		return errors.New("auth.login_rate and auth.login_burst must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the zone used to read trigger times that carry no offset
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Reminders.TimeLocation)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders.time_location %q: %w", name, err)
	}
	return loc, nil
}

// DSN returns the connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.URL != "" || d.Driver == DriverSQLite {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// splitList flattens comma separated entries coming from environment variables
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
