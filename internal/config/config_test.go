package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMongo, cfg.LeadStore)
	assert.Equal(t, "leads", cfg.LeadCollection)
	assert.Equal(t, "failed_notifications", cfg.FailedNotificationCollection)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Zero(t, cfg.TrustedProxyCount)
	assert.Equal(t, 50000, cfg.SessionMaxEntries)
	assert.Equal(t, 3, cfg.StorageMaxAttempts)
	assert.Equal(t, 3, cfg.Messenger.DiscordAttempts)
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Empty(t, cfg.JWTConfigs())
	assert.NotNil(t, cfg.ServerLog)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("LEAD_STORE", " Postgres ")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/leads")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("ADMIN_JWT_SECRET", "jwt-secret")
	t.Setenv("MAILGUN_TO", "desk@clinic.kr, doctor@clinic.kr")
	t.Setenv("SESSION_TTL", "45m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.LeadStore)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"desk@clinic.kr", "doctor@clinic.kr"}, cfg.Mailgun.To)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	require.Len(t, cfg.JWTConfigs(), 1)
	assert.Equal(t, "revision-landing-admin", cfg.JWTConfigs()[0].Issuer)
	assert.Equal(t, []byte("jwt-secret"), cfg.JWTConfigs()[0].Secret)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing session secret", map[string]string{}, "SESSION_SECRET"},
		{"unknown store", map[string]string{"SESSION_SECRET": "x", "LEAD_STORE": "sqlite"}, "LEAD_STORE"},
		{"postgres without dsn", map[string]string{"SESSION_SECRET": "x", "LEAD_STORE": "postgres"}, "POSTGRES_DSN"},
		{"bad timezone", map[string]string{"SESSION_SECRET": "x", "TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"bad duration", map[string]string{"SESSION_SECRET": "x", "SESSION_TTL": "soon"}, "SESSION_TTL"},
		{"negative proxy count", map[string]string{"SESSION_SECRET": "x", "TRUSTED_PROXY_COUNT": "-1"}, "TRUSTED_PROXY_COUNT"},
		{"zero attempts", map[string]string{"SESSION_SECRET": "x", "STORAGE_MAX_ATTEMPTS": "0"}, "STORAGE_MAX_ATTEMPTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
