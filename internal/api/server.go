package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/aperture"
	"github.com/user/aperture/internal/config"
	"github.com/user/aperture/internal/dispatch"
	"golang.org/x/time/rate"
)

// Dispatcher is what the lead handler needs from the fan-out layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, lead *aperture.Lead) dispatch.Outcome
}

// Server exposes the lead-capture endpoint plus health and metrics routes.
type Server struct {
	cfg        *config.Config
	dispatcher Dispatcher
	logger     aperture.Logger

	// primary and secondary are pinged by /readyz. secondary may be nil.
	primary   aperture.Sink
	secondary aperture.Sink

	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
}

func NewServer(cfg *config.Config, dispatcher Dispatcher, primary, secondary aperture.Sink, logger aperture.Logger) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		primary:    primary,
		secondary:  secondary,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// The lead route is registered without a method prefix so non-POST
	// requests get a JSON 405 instead of the mux default.
	mux.HandleFunc("/api/leads", s.handleLead)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.corsMiddleware(s.securityHeaders(s.rateLimit(mux)))
}

func (s *Server) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		// Only a real preflight gets the 204 short-circuit; a bare OPTIONS
		// request falls through and receives the method-not-allowed response.
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// maxTrackedClients bounds the limiter map; when exceeded the map is reset
// rather than evicted per entry, which is acceptable for a low-volume form.
const maxTrackedClients = 10000

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.cfg.RateLimit.PerSecond <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(clientIP(r)) {
			s.jsonError(w, "Too many requests. Please try again shortly.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allow(ip string) bool {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()

	if len(s.limiters) > maxTrackedClients {
		s.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit.PerSecond), s.cfg.RateLimit.Burst)
		s.limiters[ip] = limiter
	}
	return limiter.Allow()
}

func timeoutContext(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func clientIP(r *http.Request) string {
	// Behind multiple proxies the header is a comma-separated chain; the
	// first element is the originating client.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
