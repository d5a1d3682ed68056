package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("EMAIL_USER", "service@example.com")
	t.Setenv("EMAIL_PASS", "secret")
	t.Setenv("EMAIL_RRHH", " staff@example.com ")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, "587", cfg.SMTPPort)
	assert.Equal(t, "service@example.com", cfg.SMTPFromEmail)
	assert.Equal(t, "staff@example.com", cfg.StaffEmailTo)
	assert.Equal(t, DefaultMaxAttachmentBytes, cfg.MaxAttachmentBytes)
	assert.Equal(t, 30*time.Second, cfg.MailTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_USER", "login@example.com")
	t.Setenv("EMAIL_FROM", "noreply@example.com")
	t.Setenv("MAX_ATTACHMENT_BYTES", "1024")
	t.Setenv("ATTACHMENT_SNIFF", "true")
	t.Setenv("MAIL_TIMEOUT_SECONDS", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "noreply@example.com", cfg.SMTPFromEmail)
	assert.Equal(t, int64(1024), cfg.MaxAttachmentBytes)
	assert.True(t, cfg.AttachmentSniff)
	assert.Equal(t, 5*time.Second, cfg.MailTimeout)
}

func TestLoadConfigRejectsNonPositiveLimit(t *testing.T) {
	t.Setenv("MAX_ATTACHMENT_BYTES", "-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttachmentBytes, cfg.MaxAttachmentBytes)
}

func TestValidateReportsMissingMailSettings(t *testing.T) {
	cfg := &Config{SMTPHost: "smtp.example.com"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_USER")
	assert.Contains(t, err.Error(), "EMAIL_PASS")
	assert.Contains(t, err.Error(), "EMAIL_RRHH")
}
