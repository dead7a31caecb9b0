package dispatch

import (
	"context"

	"github.com/user/aperture"
	"github.com/user/aperture/internal/notification"
)

// Outcome reports one dispatch attempt. It is created fresh per call and
// consumed once by the caller to decide user-facing messaging.
type Outcome struct {
	PrimarySucceeded   bool   `json:"primarySucceeded"`
	SecondarySucceeded bool   `json:"secondarySucceeded"`
	ErrorDetail        string `json:"errorDetail,omitempty"`
}

// Dispatcher writes one lead to the secondary backup log, then delivers it
// through the primary email channel. The two attempts are independent and
// strictly sequential: the secondary write is a pre-send safety net and is
// awaited before the primary is touched.
//
// Failure semantics are asymmetric. A secondary failure is logged and
// swallowed; only the primary outcome decides the overall result. Nothing is
// retried automatically; retry is a user decision.
type Dispatcher struct {
	primary   aperture.Sink
	secondary aperture.Sink
	logger    aperture.Logger
	alerts    *notification.Service
}

// New creates a Dispatcher. secondary may be nil when the spreadsheet sink is
// not configured; the backup write is then skipped. alerts may be nil.
func New(primary, secondary aperture.Sink, logger aperture.Logger, alerts *notification.Service) *Dispatcher {
	return &Dispatcher{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		alerts:    alerts,
	}
}

// Dispatch runs the fan-out for one lead.
func (d *Dispatcher) Dispatch(ctx context.Context, lead *aperture.Lead) Outcome {
	outcome := Outcome{}

	if d.secondary != nil {
		if err := d.secondary.Write(ctx, lead); err != nil {
			d.logger.Warn("Backup log write failed", "lead_id", lead.ID, "error", err)
		} else {
			outcome.SecondarySucceeded = true
		}
	}

	if err := d.primary.Write(ctx, lead); err != nil {
		outcome.ErrorDetail = err.Error()
		d.logger.Error("Primary send failed", "lead_id", lead.ID, "error", err)
		if d.alerts != nil {
			d.alerts.Notify(ctx, "Lead delivery failed",
				"The primary email send failed; the lead may only exist in the backup sheet.", lead)
		}
		return outcome
	}

	outcome.PrimarySucceeded = true
	d.logger.Info("Lead dispatched", "lead_id", lead.ID,
		"high_priority", lead.HighPriority, "backed_up", outcome.SecondarySucceeded)
	return outcome
}

// Close releases both sinks.
func (d *Dispatcher) Close() error {
	var lastErr error
	if d.secondary != nil {
		if err := d.secondary.Close(); err != nil {
			lastErr = err
		}
	}
	if err := d.primary.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}
