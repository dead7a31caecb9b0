package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/user/aperture"
)

// DefaultEndpoint is the EmailJS REST send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// maxErrorBody caps how much of a provider error body is read for extraction.
const maxErrorBody = 8 << 10

// EmailJSSink delivers leads as transactional emails through the EmailJS REST
// API. This is the authoritative delivery channel; its outcome decides the
// overall dispatch result.
type EmailJSSink struct {
	endpoint   string
	serviceID  string
	templateID string
	publicKey  string
	privateKey string
	client     *http.Client
}

func NewEmailJSSink(endpoint, serviceID, templateID, publicKey, privateKey string) *EmailJSSink {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &EmailJSSink{
		endpoint:   endpoint,
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		privateKey: privateKey,
		client:     &http.Client{},
	}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams map[string]any `json:"template_params"`
}

// Write sends the lead as template parameters to the provider.
func (s *EmailJSSink) Write(ctx context.Context, lead *aperture.Lead) error {
	if lead == nil {
		return nil
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:   s.serviceID,
		TemplateID:  s.templateID,
		UserID:      s.publicKey,
		AccessToken: s.privateKey,
		TemplateParams: map[string]any{
			"full_name":      lead.FullName,
			"email":          lead.Email,
			"event_date":     lead.EventDate,
			"event_location": lead.EventLocation,
			"interests":      lead.InterestsJoined(),
			"vision":         lead.Vision,
			"submitted_date": lead.SubmittedAtDate,
			"submitted_time": lead.SubmittedAtTime,
			"high_priority":  lead.HighPriority,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, ExtractReason(raw))
	}

	return nil
}

// Ping verifies the endpoint is reachable. EmailJS has no health route, so an
// OPTIONS round trip to the send endpoint is the best available signal.
func (s *EmailJSSink) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "OPTIONS", s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ping request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ping failed with status code: %d", resp.StatusCode)
	}
	return nil
}

func (s *EmailJSSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// genericReason is returned when no extractor yields anything usable.
const genericReason = "the email provider rejected the request"

// nonBrowserHint is the actionable message for the provider condition where
// server-side API calls are disabled on the account.
const nonBrowserHint = "the email provider is not enabled for server-side calls; " +
	"allow API requests from non-browser applications in the provider account settings " +
	"or configure a private key"

// Extractor attempts one strategy for pulling a human-readable reason out of a
// provider error body. It returns ok=false when the strategy does not apply.
type Extractor func(body []byte) (reason string, ok bool)

// extractors are tried in order. The provider is inconsistent about error body
// shape across failure modes, so each strategy covers one observed shape.
var extractors = []Extractor{
	extractNonBrowserHint,
	extractStructured,
	extractRawText,
}

// ExtractReason runs the extraction chain over a non-2xx response body and
// returns the first reason produced, or a generic message.
func ExtractReason(body []byte) string {
	for _, extract := range extractors {
		if reason, ok := extract(body); ok {
			return reason
		}
	}
	return genericReason
}

func extractNonBrowserHint(body []byte) (string, bool) {
	if strings.Contains(strings.ToLower(string(body)), "non-browser applications") {
		return nonBrowserHint, true
	}
	return "", false
}

func extractStructured(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	for _, field := range []string{"error", "message", "detail"} {
		if v := gjson.GetBytes(body, field); v.Exists() && strings.TrimSpace(v.String()) != "" {
			return strings.TrimSpace(v.String()), true
		}
	}
	return "", false
}

func extractRawText(body []byte) (string, bool) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", false
	}
	return text, true
}
