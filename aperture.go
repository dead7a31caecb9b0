package aperture

import (
	"context"
	"strings"
	"time"
)

// Interest identifies one photography service a lead can ask about.
type Interest string

const (
	InterestWedding     Interest = "wedding"
	InterestEngagements Interest = "engagements"
	InterestFamily      Interest = "family"
	InterestNewborn     Interest = "newborn"
	InterestMaternity   Interest = "maternity"
	InterestEvents      Interest = "events"
)

// Interests lists every valid interest in display order.
var Interests = []Interest{
	InterestWedding,
	InterestEngagements,
	InterestFamily,
	InterestNewborn,
	InterestMaternity,
	InterestEvents,
}

// MaxInterests caps how many interests a single lead may select.
const MaxInterests = 3

// ValidInterest reports whether key names a known interest.
func ValidInterest(key Interest) bool {
	for _, i := range Interests {
		if i == key {
			return true
		}
	}
	return false
}

// Lead is an immutable submission payload. It is built once by the gate (or the
// API handler) from a validated draft and never mutated afterwards.
type Lead struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName"`
	Email           string     `json:"email"`
	EventDate       string     `json:"eventDate,omitempty"`
	EventLocation   string     `json:"eventLocation"`
	Interests       []Interest `json:"interests"`
	Vision          string     `json:"vision,omitempty"`
	SubmittedAtDate string     `json:"submittedAtDate"`
	SubmittedAtTime string     `json:"submittedAtTime"`
	HighPriority    bool       `json:"isHighPriority"`
	ReceivedAt      time.Time  `json:"-"`
}

// HasInterest reports whether the lead selected key.
func (l *Lead) HasInterest(key Interest) bool {
	for _, i := range l.Interests {
		if i == key {
			return true
		}
	}
	return false
}

// InterestsJoined renders the interest set as a comma-separated string for
// tabular sinks and email templates.
func (l *Lead) InterestsJoined() string {
	parts := make([]string, 0, len(l.Interests))
	for _, i := range l.Interests {
		parts = append(parts, string(i))
	}
	return strings.Join(parts, ", ")
}

// Stamp fills the derived fields from the given receive time: the two
// human-readable timestamps and the priority flag.
func (l *Lead) Stamp(now time.Time) {
	l.ReceivedAt = now
	l.SubmittedAtDate = now.Format("January 2, 2006")
	l.SubmittedAtTime = now.Format("3:04 PM MST")
	l.HighPriority = l.HasInterest(InterestWedding) || l.HasInterest(InterestEngagements)
}

// Sink delivers a lead to an external provider.
type Sink interface {
	Write(ctx context.Context, lead *Lead) error
	Ping(ctx context.Context) error
	Close() error
}

// Logger defines the structured logging interface used across Aperture.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
