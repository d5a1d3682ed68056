package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxAttachmentBytes is the 5 MB ceiling applied to uploaded PDFs.
const DefaultMaxAttachmentBytes int64 = 5 * 1024 * 1024

type Config struct {
	Port      string
	StaticDir string
	// Where the browser is sent after both mails went out
	ConfirmationURL string
	// SMTP Configuration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string // Service address used for acknowledgments
	StaffEmailTo  string
	MailTimeout   time.Duration
	// Attachment Gate
	MaxAttachmentBytes int64
	AttachmentSniff    bool
	ClamAVAddress      string
	ClamAVTimeout      time.Duration
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine outside local development
	_ = godotenv.Load()

	username := getEnv("EMAIL_USER", "")

	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		StaticDir:       getEnv("STATIC_DIR", "uploads"),
		ConfirmationURL: getEnv("CONFIRMATION_URL", "https://impulsarth.netlify.app/contactenos.html"),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  username,
		SMTPPassword:  getEnv("EMAIL_PASS", ""),
		SMTPFromEmail: getEnv("EMAIL_FROM", username),
		StaffEmailTo:  strings.TrimSpace(getEnv("EMAIL_RRHH", "")),
		MailTimeout:   time.Duration(getEnvInt("MAIL_TIMEOUT_SECONDS", 30)) * time.Second,
		// Attachment Gate
		MaxAttachmentBytes: getEnvInt64("MAX_ATTACHMENT_BYTES", DefaultMaxAttachmentBytes),
		AttachmentSniff:    getEnvBool("ATTACHMENT_SNIFF", false),
		ClamAVAddress:      getEnv("CLAMAV_ADDRESS", ""),
		ClamAVTimeout:      time.Duration(getEnvInt("CLAMAV_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.MaxAttachmentBytes <= 0 {
		log.Println("WARNING: MAX_ATTACHMENT_BYTES must be positive, using the 5 MB default.")
		cfg.MaxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 30 * time.Second
	}

	return cfg, nil
}

// Validate reports the mail settings that are missing. The server still starts
// without them but every submission will fail at the transport.
func (c *Config) Validate() error {
	var errs []error
	if c.SMTPHost == "" {
		errs = append(errs, errors.New("SMTP_HOST is empty"))
	}
	if c.SMTPUsername == "" {
		errs = append(errs, errors.New("EMAIL_USER is empty"))
	}
	if c.SMTPPassword == "" {
		errs = append(errs, errors.New("EMAIL_PASS is empty"))
	}
	if c.StaffEmailTo == "" {
		errs = append(errs, errors.New("EMAIL_RRHH is empty"))
	}
	return errors.Join(errs...)
}

// IsProduction follows gin's release mode switch.
func (c *Config) IsProduction() bool {
	return os.Getenv("GIN_MODE") == "release"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
