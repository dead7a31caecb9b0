package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/aperture"
)

// State tracks where a form session is in its lifecycle. Dispatching is the
// only state in which Submit re-entry is blocked.
type State int

const (
	StateEditing State = iota
	StateValidating
	StateDispatching
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateDispatching:
		return "dispatching"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// minDwellTime is the shortest interval between form open and submit that is
// accepted as human. Faster submissions are presumed automated.
const minDwellTime = 3 * time.Second

// ValidationError carries the user-displayable reason a draft was rejected.
// It replaces any prior message; the gate reports only the first failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrBusy is returned when Submit is called while a dispatch is in flight.
var ErrBusy = errors.New("a submission is already in progress")

// Sender transmits one validated lead. The dispatcher satisfies this through
// a thin adapter; tests substitute fakes.
type Sender interface {
	Send(ctx context.Context, lead *aperture.Lead) error
}

// Field names accepted by UpdateField.
const (
	FieldFullName      = "fullName"
	FieldEmail         = "email"
	FieldEventDate     = "eventDate"
	FieldEventLocation = "eventLocation"
	FieldVision        = "vision"
	FieldHoneypot      = "honeypot"
)

// Gate owns one form session: the mutable draft, the anti-bot bookkeeping and
// the at-most-one-in-flight submit guarantee. Each page load gets its own
// Gate; no state crosses sessions.
type Gate struct {
	mu sync.Mutex

	fullName      string
	email         string
	eventDate     string
	eventLocation string
	interests     []aperture.Interest
	vision        string
	honeypot      string

	openedAt time.Time
	state    State

	sender Sender
	now    func() time.Time
}

// New creates a Gate for a freshly opened form. The open timestamp is
// captured once here and never changes for the life of the draft.
func New(sender Sender) *Gate {
	g := &Gate{
		sender: sender,
		now:    time.Now,
	}
	g.openedAt = g.now()
	return g
}

// State returns the current lifecycle state. The UI layer reads it to disable
// the submit control while a dispatch is in flight.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// UpdateField mutates one draft field. Validation is deferred to submit time;
// unknown field names are ignored.
func (g *Gate) UpdateField(name, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch name {
	case FieldFullName:
		g.fullName = value
	case FieldEmail:
		g.email = value
	case FieldEventDate:
		g.eventDate = value
	case FieldEventLocation:
		g.eventLocation = value
	case FieldVision:
		g.vision = value
	case FieldHoneypot:
		g.honeypot = value
	}
}

// ToggleInterest flips membership of key in the interest set. Growing the set
// past the cap is a silent no-op: the fourth selection must never register.
// Unknown keys are ignored.
func (g *Gate) ToggleInterest(key aperture.Interest) {
	if !aperture.ValidInterest(key) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, existing := range g.interests {
		if existing == key {
			g.interests = append(g.interests[:i], g.interests[i+1:]...)
			return
		}
	}
	if len(g.interests) >= aperture.MaxInterests {
		return
	}
	g.interests = append(g.interests, key)
}

// Interests returns a copy of the current selection.
func (g *Gate) Interests() []aperture.Interest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]aperture.Interest, len(g.interests))
	copy(out, g.interests)
	return out
}

// Submit validates the draft, builds the immutable payload and hands it to
// the sender. The invariants run in a fixed order and short-circuit on the
// first failure, so repeated calls on the same draft always report the same
// reason. While the send is in flight a second Submit returns ErrBusy.
//
// The draft is cleared only on successful delivery; a failed send returns the
// gate to editing with every field intact so the user can resubmit.
func (g *Gate) Submit(ctx context.Context) (*aperture.Lead, error) {
	g.mu.Lock()
	if g.state == StateDispatching {
		g.mu.Unlock()
		return nil, ErrBusy
	}

	g.state = StateValidating
	if verr := g.validateLocked(); verr != nil {
		g.state = StateEditing
		g.mu.Unlock()
		return nil, verr
	}

	lead := g.buildLeadLocked()
	g.state = StateDispatching
	g.mu.Unlock()

	err := g.sender.Send(ctx, lead)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = StateEditing
		return nil, err
	}

	g.state = StateDelivered
	g.resetLocked()
	return lead, nil
}

// validateLocked runs the invariant set in submission order:
// name, email, location, interest count, honeypot, dwell time, content.
func (g *Gate) validateLocked() *ValidationError {
	if len([]rune(g.fullName)) < 2 {
		return &ValidationError{Reason: "Please enter your full name."}
	}
	if !emailPattern.MatchString(g.email) {
		return &ValidationError{Reason: "Please enter a valid email address."}
	}
	if g.eventLocation == "" {
		return &ValidationError{Reason: "Please tell us where your event will take place."}
	}
	if n := len(g.interests); n < 1 || n > aperture.MaxInterests {
		return &ValidationError{Reason: "Please select between one and three services."}
	}
	// Bot paths get deliberately generic messages.
	if g.honeypot != "" {
		return &ValidationError{Reason: "Something went wrong. Please try again."}
	}
	if g.now().Sub(g.openedAt) < minDwellTime {
		return &ValidationError{Reason: "Something went wrong. Please try again."}
	}
	if reason := checkContent(g.fullName + " " + g.vision); reason != "" {
		return &ValidationError{Reason: reason}
	}
	return nil
}

func (g *Gate) buildLeadLocked() *aperture.Lead {
	interests := make([]aperture.Interest, len(g.interests))
	copy(interests, g.interests)

	lead := &aperture.Lead{
		ID:            uuid.New().String(),
		FullName:      g.fullName,
		Email:         g.email,
		EventDate:     g.eventDate,
		EventLocation: g.eventLocation,
		Interests:     interests,
		Vision:        g.vision,
	}
	lead.Stamp(g.now())
	return lead
}

func (g *Gate) resetLocked() {
	g.fullName = ""
	g.email = ""
	g.eventDate = ""
	g.eventLocation = ""
	g.interests = nil
	g.vision = ""
	g.honeypot = ""
}
