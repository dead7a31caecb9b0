package failover

import (
	"context"
	"fmt"

	"github.com/user/aperture"
)

// FailoverSink wraps a primary sink and ordered fallback sinks. A write
// succeeds as soon as any sink in the chain accepts the lead. The dispatcher
// uses it for the primary email channel so a REST provider outage does not
// lose a lead when SMTP is configured.
type FailoverSink struct {
	primary   aperture.Sink
	fallbacks []aperture.Sink
	logger    aperture.Logger
}

func NewFailoverSink(primary aperture.Sink, fallbacks ...aperture.Sink) *FailoverSink {
	return &FailoverSink{
		primary:   primary,
		fallbacks: fallbacks,
	}
}

func (s *FailoverSink) Write(ctx context.Context, lead *aperture.Lead) error {
	err := s.primary.Write(ctx, lead)
	if err == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Warn("Primary sink failed, trying fallbacks", "error", err)
	}

	for i, fallback := range s.fallbacks {
		if ferr := fallback.Write(ctx, lead); ferr == nil {
			if s.logger != nil {
				s.logger.Info("Fallback sink succeeded", "index", i)
			}
			return nil
		} else if s.logger != nil {
			s.logger.Warn("Fallback sink failed", "index", i, "error", ferr)
		}
	}

	// Report the primary's error: it carries the extracted provider reason
	// that the caller surfaces to the user.
	return fmt.Errorf("all sinks in failover group failed: %w", err)
}

func (s *FailoverSink) Ping(ctx context.Context) error {
	// Ping primary to check overall health
	return s.primary.Ping(ctx)
}

func (s *FailoverSink) Close() error {
	var lastErr error
	if err := s.primary.Close(); err != nil {
		lastErr = err
	}
	for _, fallback := range s.fallbacks {
		if err := fallback.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *FailoverSink) SetLogger(logger aperture.Logger) {
	s.logger = logger
}
