package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/user/aperture"
)

// Settings holds the operator alert channels. Every channel is optional; an
// unset channel is skipped.
type Settings struct {
	SlackWebhook   string `json:"slack_webhook"`
	DiscordWebhook string `json:"discord_webhook"`
	WebhookURL     string `json:"webhook_url"`
}

// Configured reports whether at least one alert channel is set.
func (s Settings) Configured() bool {
	return s.SlackWebhook != "" || s.DiscordWebhook != "" || s.WebhookURL != ""
}

// Provider delivers one operator alert about a lead.
type Provider interface {
	Send(ctx context.Context, title, message string, lead *aperture.Lead) error
	Type() string
}

// Service fans an alert out to every configured provider, throttling repeats
// of the same title so a provider outage does not flood the channels.
type Service struct {
	providers []Provider
	logger    aperture.Logger
	lastSent  map[string]time.Time
	mu        sync.RWMutex
}

const alertThrottle = 5 * time.Minute

func NewService(logger aperture.Logger) *Service {
	return &Service{
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}
}

func (s *Service) AddProvider(p Provider) {
	s.providers = append(s.providers, p)
}

// Notify sends the alert to every provider. Provider failures are logged and
// swallowed; alerting is never allowed to affect the dispatch pipeline.
func (s *Service) Notify(ctx context.Context, title, message string, lead *aperture.Lead) {
	s.mu.Lock()
	if last, ok := s.lastSent[title]; ok {
		if time.Since(last) < alertThrottle {
			s.mu.Unlock()
			return
		}
	}
	s.lastSent[title] = time.Now()
	s.mu.Unlock()

	for _, p := range s.providers {
		if err := p.Send(ctx, title, message, lead); err != nil && s.logger != nil {
			s.logger.Warn("Failed to send alert", "channel", p.Type(), "error", err)
		}
	}
}

// FromSettings builds a service with one provider per configured channel.
func FromSettings(settings Settings, logger aperture.Logger) *Service {
	svc := NewService(logger)
	if settings.SlackWebhook != "" {
		svc.AddProvider(&SlackProvider{webhook: settings.SlackWebhook})
	}
	if settings.DiscordWebhook != "" {
		svc.AddProvider(&DiscordProvider{webhook: settings.DiscordWebhook})
	}
	if settings.WebhookURL != "" {
		svc.AddProvider(&WebhookProvider{url: settings.WebhookURL})
	}
	return svc
}

type SlackProvider struct {
	webhook string
}

func NewSlackProvider(webhook string) *SlackProvider {
	return &SlackProvider{webhook: webhook}
}

func (p *SlackProvider) Send(ctx context.Context, title, message string, lead *aperture.Lead) error {
	text := fmt.Sprintf("*%s*\n%s", title, message)
	fields := []map[string]interface{}{}
	if lead != nil {
		fields = append(fields,
			map[string]interface{}{"title": "Lead", "value": lead.FullName, "short": true},
			map[string]interface{}{"title": "Email", "value": lead.Email, "short": true},
			map[string]interface{}{"title": "Interests", "value": lead.InterestsJoined(), "short": true},
		)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"text": text,
		"attachments": []map[string]interface{}{
			{
				"color":  "#ff0000",
				"fields": fields,
			},
		},
	})

	return postJSON(ctx, p.webhook, body, http.StatusOK)
}

func (p *SlackProvider) Type() string {
	return "slack"
}

type DiscordProvider struct {
	webhook string
}

func NewDiscordProvider(webhook string) *DiscordProvider {
	return &DiscordProvider{webhook: webhook}
}

func (p *DiscordProvider) Send(ctx context.Context, title, message string, lead *aperture.Lead) error {
	fields := []map[string]interface{}{}
	if lead != nil {
		fields = append(fields,
			map[string]interface{}{"name": "Lead", "value": lead.FullName, "inline": true},
			map[string]interface{}{"name": "Email", "value": lead.Email, "inline": true},
		)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"content": fmt.Sprintf("**%s**\n%s", title, message),
		"embeds": []map[string]interface{}{
			{
				"title":       title,
				"description": message,
				"color":       16711680, // Red
				"fields":      fields,
			},
		},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", p.webhook, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord api returned status: %d", resp.StatusCode)
	}
	return nil
}

func (p *DiscordProvider) Type() string {
	return "discord"
}

type WebhookProvider struct {
	url string
}

func NewWebhookProvider(url string) *WebhookProvider {
	return &WebhookProvider{url: url}
}

func (p *WebhookProvider) Send(ctx context.Context, title, message string, lead *aperture.Lead) error {
	data := map[string]interface{}{
		"title":     title,
		"message":   message,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if lead != nil {
		data["lead_id"] = lead.ID
		data["lead_name"] = lead.FullName
		data["lead_email"] = lead.Email
	}

	body, _ := json.Marshal(data)
	return postJSON(ctx, p.url, body, 0)
}

func (p *WebhookProvider) Type() string {
	return "webhook"
}

// postJSON posts body to url. When wantStatus is 0 any 2xx is accepted.
func postJSON(ctx context.Context, url string, body []byte, wantStatus int) error {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if wantStatus != 0 {
		if resp.StatusCode != wantStatus {
			return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
		}
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
