package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.TimeoutRead)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "./migrations", cfg.Database.MigrationsPath)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Vault.Enabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Scheduler.EnableProcessClosing)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.ProcessCloseInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_DURATION", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_MAX_IDLE_CONNS", "many")
	t.Setenv("SERVER_TIMEOUT_IDLE", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 60*time.Second, cfg.Server.TimeoutIdle)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "secret present",
			cfg:  Config{JWT: JWTConfig{Secret: "s"}},
		},
		{
			name:    "missing secret without vault",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "missing secret with vault",
			cfg:  Config{Vault: VaultConfig{Enabled: true, Token: "t"}},
		},
		{
			name:    "vault without token",
			cfg:     Config{Vault: VaultConfig{Enabled: true}},
			wantErr: true,
		},
		{
			name: "production without db password",
			cfg: Config{
				JWT:   JWTConfig{Secret: "s"},
				App:   AppConfig{Env: "production"},
				Audit: AuditConfig{IPHashKey: "k"},
			},
			wantErr: true,
		},
		{
			name: "production without ip hash key",
			cfg: Config{
				JWT:      JWTConfig{Secret: "s"},
				App:      AppConfig{Env: "production"},
				Database: DatabaseConfig{Password: "p"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.DSN())
}
