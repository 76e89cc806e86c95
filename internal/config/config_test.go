package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROLLCALL_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, ":3000", cfg.HTTPAddress())
	require.Equal(t, 2160*time.Hour, cfg.SessionTTL)
	require.Equal(t, 5*time.Minute, cfg.AttendanceCacheTTL)
	require.Equal(t, "adithyatech.com", cfg.EmailDomain)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.False(t, cfg.SecureCookies())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROLLCALL_JWT_SECRET", "s3cret")
	t.Setenv("ROLLCALL_APP_ENV", "production")
	t.Setenv("ROLLCALL_APP_PORT", ":8080")
	t.Setenv("ROLLCALL_DATABASE_DRIVER", " SQLite ")
	t.Setenv("ROLLCALL_SESSION_TTL", "12h")
	t.Setenv("ROLLCALL_AUTH_EMAIL_DOMAIN", "College.EDU")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, "college.edu", cfg.EmailDomain)
	require.True(t, cfg.SecureCookies())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("ROLLCALL_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("ROLLCALL_JWT_SECRET", "s3cret")
	t.Setenv("ROLLCALL_ATTENDANCE_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
