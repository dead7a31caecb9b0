package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/aperture"
	"github.com/user/aperture/internal/config"
	"github.com/user/aperture/internal/dispatch"
	"github.com/user/aperture/internal/logging"
)

type mockSink struct {
	err    error
	writes int
}

func (m *mockSink) Write(ctx context.Context, lead *aperture.Lead) error {
	m.writes++
	return m.err
}

func (m *mockSink) Ping(ctx context.Context) error { return m.err }
func (m *mockSink) Close() error                   { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.EmailJS.ServiceID = "svc_1"
	cfg.EmailJS.TemplateID = "tpl_1"
	cfg.EmailJS.PublicKey = "pub_1"
	cfg.RateLimit.PerSecond = 0 // exercised separately
	return cfg
}

func newTestServer(cfg *config.Config, primary, secondary aperture.Sink) *Server {
	logger := logging.NewWriter(io.Discard)
	dispatcher := dispatch.New(primary, secondary, logger, nil)
	return NewServer(cfg, dispatcher, primary, secondary, logger)
}

func validBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"fullName":      "Jo",
		"email":         "jo@x.com",
		"eventLocation": "NYC",
		"interests":     map[string]bool{"wedding": true},
	})
	return body
}

func postLead(handler http.Handler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleLead_MethodNotAllowed(t *testing.T) {
	server := newTestServer(testConfig(), &mockSink{}, nil)
	handler := server.Routes()

	for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/leads", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("expected JSON error body: %v", err)
			}
			if resp["error"] != "Method Not Allowed" {
				t.Fatalf("unexpected error message: %q", resp["error"])
			}
		})
	}
}

func TestHandleLead_Validation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{
			"email": "jo@x.com", "eventLocation": "NYC",
			"interests": map[string]bool{"wedding": true},
		}},
		{"short name", map[string]interface{}{
			"fullName": "J", "email": "jo@x.com", "eventLocation": "NYC",
			"interests": map[string]bool{"wedding": true},
		}},
		{"bad email", map[string]interface{}{
			"fullName": "Jo", "email": "not-an-email", "eventLocation": "NYC",
			"interests": map[string]bool{"wedding": true},
		}},
		{"missing location", map[string]interface{}{
			"fullName": "Jo", "email": "jo@x.com",
			"interests": map[string]bool{"wedding": true},
		}},
		{"no interests", map[string]interface{}{
			"fullName": "Jo", "email": "jo@x.com", "eventLocation": "NYC",
			"interests": map[string]bool{},
		}},
		{"too many interests", map[string]interface{}{
			"fullName": "Jo", "email": "jo@x.com", "eventLocation": "NYC",
			"interests": map[string]bool{"wedding": true, "family": true, "newborn": true, "events": true},
		}},
		{"unknown interest", map[string]interface{}{
			"fullName": "Jo", "email": "jo@x.com", "eventLocation": "NYC",
			"interests": map[string]bool{"portraits": true},
		}},
	}

	primary := &mockSink{}
	server := newTestServer(testConfig(), primary, nil)
	handler := server.Routes()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			rec := postLead(handler, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
				t.Fatalf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}

	if primary.writes != 0 {
		t.Fatalf("rejected submissions must not reach the sinks: %d writes", primary.writes)
	}
}

func TestHandleLead_MalformedBody(t *testing.T) {
	server := newTestServer(testConfig(), &mockSink{}, nil)
	rec := postLead(server.Routes(), []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLead_ProviderNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.EmailJS = config.EmailJSConfig{Endpoint: cfg.EmailJS.Endpoint}

	server := newTestServer(cfg, &mockSink{}, nil)
	rec := postLead(server.Routes(), validBody())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	// The message must stay generic: no credential names, no env var names.
	body := strings.ToLower(rec.Body.String())
	for _, leak := range []string{"service_id", "template", "key", "aperture_"} {
		if strings.Contains(body, leak) {
			t.Fatalf("configuration error leaked detail %q: %s", leak, rec.Body.String())
		}
	}
}

func TestHandleLead_DryRunNeedsNoCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Server.DryRun = true
	cfg.RateLimit.PerSecond = 0

	primary := &mockSink{}
	server := newTestServer(cfg, primary, nil)

	rec := postLead(server.Routes(), validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("dry-run submit must succeed without provider credentials, got %d: %s", rec.Code, rec.Body.String())
	}
	if primary.writes != 1 {
		t.Fatalf("dry-run lead never reached the sink: %d writes", primary.writes)
	}
}

func TestHandleLead_RoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		interests map[string]bool
		wantHigh  bool
	}{
		{"wedding", map[string]bool{"wedding": true}, true},
		{"engagements", map[string]bool{"engagements": true, "family": true}, true},
		{"family only", map[string]bool{"family": true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(testConfig(), &mockSink{}, &mockSink{})
			body, _ := json.Marshal(map[string]interface{}{
				"fullName":      "Jo",
				"email":         "jo@x.com",
				"eventLocation": "NYC",
				"interests":     tc.interests,
			})
			rec := postLead(server.Routes(), body)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp leadResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !resp.Success {
				t.Fatal("expected success")
			}
			if resp.IsWeddingOrEngagement != tc.wantHigh {
				t.Fatalf("isWeddingOrEngagement = %v, want %v", resp.IsWeddingOrEngagement, tc.wantHigh)
			}
		})
	}
}

func TestHandleLead_SecondaryFailureStillSucceeds(t *testing.T) {
	primary := &mockSink{}
	secondary := &mockSink{err: errors.New("sheet unreachable")}
	server := newTestServer(testConfig(), primary, secondary)

	rec := postLead(server.Routes(), validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("secondary failure must not fail the call, got %d: %s", rec.Code, rec.Body.String())
	}
	if primary.writes != 1 {
		t.Fatalf("primary writes = %d", primary.writes)
	}
}

func TestHandleLead_PrimaryFailure(t *testing.T) {
	primary := &mockSink{err: errors.New("email provider returned status 403: the email provider is not enabled for server-side calls")}
	server := newTestServer(testConfig(), primary, &mockSink{})

	rec := postLead(server.Routes(), validBody())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	if !strings.Contains(resp["error"], "server-side calls") {
		t.Fatalf("primary failure detail missing: %q", resp["error"])
	}
}
