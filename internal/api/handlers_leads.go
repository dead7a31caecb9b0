package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/user/aperture"
	"github.com/user/aperture/internal/gate"
)

// leadRequest is the inbound JSON shape, the payload before derivation. The
// interests object mirrors the form checkboxes.
type leadRequest struct {
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	EventDate     string          `json:"eventDate"`
	EventLocation string          `json:"eventLocation"`
	Interests     map[string]bool `json:"interests"`
	Vision        string          `json:"vision"`
}

type leadResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	IsWeddingOrEngagement bool   `json:"isWeddingOrEngagement"`
}

const configErrorMessage = "The inquiry service is not configured. Please try again later."

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	LeadsReceived.Inc()

	if msg, ok := req.validate(); !ok {
		LeadsRejected.WithLabelValues("validation").Inc()
		s.jsonError(w, msg, http.StatusBadRequest)
		return
	}

	// Never leak which credential is missing. Dry-run mode dispatches to
	// stdout and needs no provider credentials.
	if !s.cfg.Server.DryRun && !s.cfg.EmailJS.Configured() {
		LeadsRejected.WithLabelValues("config").Inc()
		s.logger.Error("Lead rejected: primary provider not configured")
		s.jsonError(w, configErrorMessage, http.StatusInternalServerError)
		return
	}

	lead := req.toLead()
	start := time.Now()
	outcome := s.dispatcher.Dispatch(r.Context(), lead)
	DispatchDuration.Observe(time.Since(start).Seconds())

	if !outcome.PrimarySucceeded {
		DispatchResults.WithLabelValues("failed").Inc()
		detail := outcome.ErrorDetail
		if detail == "" {
			detail = "We couldn't send your inquiry. Please try again."
		}
		s.jsonError(w, detail, http.StatusInternalServerError)
		return
	}

	DispatchResults.WithLabelValues("delivered").Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(leadResponse{
		Success:               true,
		Message:               "Thank you! Your inquiry has been sent.",
		IsWeddingOrEngagement: lead.HighPriority,
	})
}

// validate enforces the inbound contract: required fields present, email
// matches shape, one to three known interests selected.
func (req *leadRequest) validate() (string, bool) {
	if len([]rune(req.FullName)) < 2 {
		return "fullName is required", false
	}
	if !gate.ValidEmail(req.Email) {
		return "a valid email is required", false
	}
	if req.EventLocation == "" {
		return "eventLocation is required", false
	}
	count := 0
	for key, selected := range req.Interests {
		if !selected {
			continue
		}
		if !aperture.ValidInterest(aperture.Interest(key)) {
			return "unknown interest: " + key, false
		}
		count++
	}
	if count < 1 || count > aperture.MaxInterests {
		return "between one and three interests must be selected", false
	}
	return "", true
}

// toLead builds the immutable payload, selecting interests in canonical
// display order so downstream rows and emails are deterministic.
func (req *leadRequest) toLead() *aperture.Lead {
	var interests []aperture.Interest
	for _, key := range aperture.Interests {
		if req.Interests[string(key)] {
			interests = append(interests, key)
		}
	}

	lead := &aperture.Lead{
		ID:            uuid.New().String(),
		FullName:      req.FullName,
		Email:         req.Email,
		EventDate:     req.EventDate,
		EventLocation: req.EventLocation,
		Interests:     interests,
		Vision:        req.Vision,
	}
	lead.Stamp(time.Now())
	return lead
}
