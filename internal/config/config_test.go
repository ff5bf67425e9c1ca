package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Database.MaxRetries)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.yaml")
	yaml := `
database:
  driver: sqlite
  url: /tmp/reminders.db
scheduler:
  interval: 10s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SCHEDULER_INTERVAL", "2s")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/reminders.db", cfg.Database.DSN())
	assert.Equal(t, 2*time.Second, cfg.Scheduler.Interval, "environment overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "mongo"}},
		{name: "sqlite without path", env: map[string]string{"DB_DRIVER": "sqlite"}},
		{name: "zero interval", env: map[string]string{"SCHEDULER_INTERVAL": "0s"}},
		{name: "bad timezone", env: map[string]string{"TRIGGER_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestPostgresDSNFromParts(t *testing.T) {
	d := DatabaseConfig{
		Driver: DriverPostgres, Host: "db", Port: "5432", User: "admin",
		Password: "pw", Name: "reminders_db", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db user=admin password=pw dbname=reminders_db port=5432 sslmode=disable TimeZone=UTC connect_timeout=10",
		d.DSN())

	d.URL = "postgres://u@h/db"
	assert.Equal(t, "postgres://u@h/db", d.DSN())
}
