package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries everything the service needs, resolved once at startup and
// injected. Request handlers never read the environment.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	EmailJS   EmailJSConfig   `json:"emailjs" yaml:"emailjs"`
	Sheets    SheetsConfig    `json:"sheets" yaml:"sheets"`
	SMTP      SMTPConfig      `json:"smtp" yaml:"smtp"`
	Alerts    AlertsConfig    `json:"alerts" yaml:"alerts"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// DryRun routes leads to stdout instead of the real providers. It is set
	// from the command line, never from a config file.
	DryRun bool `json:"-" yaml:"-"`
}

// EmailJSConfig holds the transactional email provider identifiers. The
// private key stays server-side; it is never echoed in errors or logs.
type EmailJSConfig struct {
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	ServiceID  string `json:"service_id" yaml:"service_id"`
	TemplateID string `json:"template_id" yaml:"template_id"`
	PublicKey  string `json:"public_key" yaml:"public_key"`
	PrivateKey string `json:"private_key" yaml:"private_key"`
}

// Configured reports whether the primary provider can be called at all.
func (c EmailJSConfig) Configured() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

type SheetsConfig struct {
	CredentialsJSON string `json:"credentials_json" yaml:"credentials_json"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	SpreadsheetID   string `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	Range           string `json:"range" yaml:"range"`
}

// Configured reports whether the secondary sink has enough to attempt writes.
// Missing sheets config degrades gracefully; it is never fatal.
func (c SheetsConfig) Configured() bool {
	return c.SpreadsheetID != "" && (c.CredentialsJSON != "" || c.CredentialsFile != "")
}

type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	SSL      bool   `json:"ssl" yaml:"ssl"`
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != "" && c.To != ""
}

type AlertsConfig struct {
	SlackWebhook   string `json:"slack_webhook" yaml:"slack_webhook"`
	DiscordWebhook string `json:"discord_webhook" yaml:"discord_webhook"`
	WebhookURL     string `json:"webhook_url" yaml:"webhook_url"`
}

type RateLimitConfig struct {
	PerSecond float64 `json:"per_second" yaml:"per_second"`
	Burst     int     `json:"burst" yaml:"burst"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":4000",
			ShutdownTimeout: 10 * time.Second,
		},
		EmailJS: EmailJSConfig{
			Endpoint: "https://api.emailjs.com/api/v1.0/email/send",
		},
		Sheets: SheetsConfig{
			Range: "Leads!A:H",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 1,
			Burst:     5,
		},
	}
}

// Load reads the config file at path over the defaults. The file may be YAML
// or JSON.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		// Try JSON if YAML fails
		file.Seek(0, 0)
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays APERTURE_* environment variables onto the config.
// Credentials are usually supplied this way in deployment.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Server.Addr, "APERTURE_ADDR")

	setString(&c.EmailJS.Endpoint, "APERTURE_EMAILJS_ENDPOINT")
	setString(&c.EmailJS.ServiceID, "APERTURE_EMAILJS_SERVICE_ID")
	setString(&c.EmailJS.TemplateID, "APERTURE_EMAILJS_TEMPLATE_ID")
	setString(&c.EmailJS.PublicKey, "APERTURE_EMAILJS_PUBLIC_KEY")
	setString(&c.EmailJS.PrivateKey, "APERTURE_EMAILJS_PRIVATE_KEY")

	setString(&c.Sheets.CredentialsJSON, "APERTURE_SHEETS_CREDENTIALS_JSON")
	setString(&c.Sheets.CredentialsFile, "APERTURE_SHEETS_CREDENTIALS_FILE")
	setString(&c.Sheets.SpreadsheetID, "APERTURE_SHEETS_SPREADSHEET_ID")
	setString(&c.Sheets.Range, "APERTURE_SHEETS_RANGE")

	setString(&c.SMTP.Host, "APERTURE_SMTP_HOST")
	setString(&c.SMTP.Username, "APERTURE_SMTP_USERNAME")
	setString(&c.SMTP.Password, "APERTURE_SMTP_PASSWORD")
	setString(&c.SMTP.From, "APERTURE_SMTP_FROM")
	setString(&c.SMTP.To, "APERTURE_SMTP_TO")
	if v := os.Getenv("APERTURE_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("APERTURE_SMTP_SSL"); v != "" {
		if ssl, err := strconv.ParseBool(v); err == nil {
			c.SMTP.SSL = ssl
		}
	}

	setString(&c.Alerts.SlackWebhook, "APERTURE_ALERTS_SLACK_WEBHOOK")
	setString(&c.Alerts.DiscordWebhook, "APERTURE_ALERTS_DISCORD_WEBHOOK")
	setString(&c.Alerts.WebhookURL, "APERTURE_ALERTS_WEBHOOK_URL")
}
