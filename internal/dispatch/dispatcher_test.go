package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/user/aperture"
	"github.com/user/aperture/internal/logging"
)

type mockSink struct {
	err    error
	writes int
	order  *[]string
	name   string
}

func (m *mockSink) Write(ctx context.Context, lead *aperture.Lead) error {
	m.writes++
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	return m.err
}

func (m *mockSink) Ping(ctx context.Context) error { return nil }
func (m *mockSink) Close() error                   { return nil }

func testLead() *aperture.Lead {
	lead := &aperture.Lead{
		ID:            "lead-1",
		FullName:      "Jo",
		Email:         "jo@x.com",
		EventLocation: "NYC",
		Interests:     []aperture.Interest{aperture.InterestWedding},
	}
	lead.Stamp(time.Now())
	return lead
}

func newTestDispatcher(primary, secondary aperture.Sink) *Dispatcher {
	return New(primary, secondary, logging.NewWriter(io.Discard), nil)
}

func TestDispatch_BothSucceed(t *testing.T) {
	primary := &mockSink{}
	secondary := &mockSink{}
	d := newTestDispatcher(primary, secondary)

	outcome := d.Dispatch(context.Background(), testLead())
	if !outcome.PrimarySucceeded || !outcome.SecondarySucceeded {
		t.Fatalf("expected full success, got %+v", outcome)
	}
	if outcome.ErrorDetail != "" {
		t.Fatalf("unexpected error detail: %s", outcome.ErrorDetail)
	}
}

func TestDispatch_SecondaryFailureIsSwallowed(t *testing.T) {
	primary := &mockSink{}
	secondary := &mockSink{err: errors.New("sheet unreachable")}
	d := newTestDispatcher(primary, secondary)

	outcome := d.Dispatch(context.Background(), testLead())
	if !outcome.PrimarySucceeded {
		t.Fatal("secondary failure must not abort the primary send")
	}
	if outcome.SecondarySucceeded {
		t.Fatal("secondary failure must be reflected in the outcome")
	}
	if primary.writes != 1 {
		t.Fatalf("primary not attempted: %d writes", primary.writes)
	}
	if outcome.ErrorDetail != "" {
		t.Fatalf("secondary failure must not surface detail: %s", outcome.ErrorDetail)
	}
}

func TestDispatch_PrimaryFailure(t *testing.T) {
	primary := &mockSink{err: errors.New("email provider returned status 403: server-side calls disabled")}
	secondary := &mockSink{}
	d := newTestDispatcher(primary, secondary)

	outcome := d.Dispatch(context.Background(), testLead())
	if outcome.PrimarySucceeded {
		t.Fatal("primary failure must fail the dispatch")
	}
	if !outcome.SecondarySucceeded {
		t.Fatal("secondary succeeded before the primary failed")
	}
	if outcome.ErrorDetail == "" {
		t.Fatal("primary failure must carry the error detail")
	}
}

func TestDispatch_SecondaryBeforePrimary(t *testing.T) {
	var order []string
	primary := &mockSink{order: &order, name: "primary"}
	secondary := &mockSink{order: &order, name: "secondary"}
	d := newTestDispatcher(primary, secondary)

	d.Dispatch(context.Background(), testLead())
	if len(order) != 2 || order[0] != "secondary" || order[1] != "primary" {
		t.Fatalf("expected secondary then primary, got %v", order)
	}
}

func TestDispatch_NilSecondarySkipped(t *testing.T) {
	primary := &mockSink{}
	d := newTestDispatcher(primary, nil)

	outcome := d.Dispatch(context.Background(), testLead())
	if !outcome.PrimarySucceeded {
		t.Fatal("primary should succeed without a secondary")
	}
	if outcome.SecondarySucceeded {
		t.Fatal("missing secondary must report not-succeeded")
	}
}
