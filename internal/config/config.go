// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL string
	AppEnv      string
	Port        string

	// SiteURL is the public base URL used when building conversation links
	// for notification emails.
	SiteURL string

	// Mail settings. When SMTPHost is empty the service falls back to a
	// log-only mailer so chat keeps working in development.
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	// MediaDir overrides the executable-relative attachment directory when
	// set. Mostly useful for tests and containers.
	MediaDir string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// LoadConfig reads configuration from environment variables. Optional values
// get a logged default; a missing DATABASE_URL is fatal for the caller.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppEnv:      os.Getenv("ENV"),
		Port:        os.Getenv("PORT"),
		SiteURL:     os.Getenv("SITE_URL"),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    os.Getenv("SMTP_PORT"),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASSWORD"),
		FromEmail:   os.Getenv("FROM_EMAIL"),
		MediaDir:    os.Getenv("MEDIA_DIR"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	parsedURL, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	cfg.DBHost = parsedURL.Hostname()
	cfg.DBPort = parsedURL.Port()
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	cfg.DBUser = parsedURL.User.Username()
	cfg.DBPassword, _ = parsedURL.User.Password()
	cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SiteURL == "" {
		log.Warn("SITE_URL is not set, using http://127.0.0.1:" + cfg.Port)
		cfg.SiteURL = "http://127.0.0.1:" + cfg.Port
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "no-reply@handymenhub.local"
	}
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST is not set. Notification emails will be logged, not delivered.")
	}

	log.Info("Configuration loaded.")
	return cfg, nil
}
