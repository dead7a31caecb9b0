package aperture

import (
	"testing"
	"time"
)

func TestLeadStamp(t *testing.T) {
	lead := &Lead{
		FullName:  "Jo",
		Interests: []Interest{InterestFamily},
	}
	now := time.Date(2026, 9, 1, 15, 4, 0, 0, time.UTC)
	lead.Stamp(now)

	if lead.SubmittedAtDate != "September 1, 2026" {
		t.Fatalf("date = %q", lead.SubmittedAtDate)
	}
	if lead.SubmittedAtTime != "3:04 PM UTC" {
		t.Fatalf("time = %q", lead.SubmittedAtTime)
	}
	if lead.HighPriority {
		t.Fatal("family-only lead must not be high priority")
	}

	lead.Interests = []Interest{InterestEngagements}
	lead.Stamp(now)
	if !lead.HighPriority {
		t.Fatal("engagement lead must be high priority")
	}
}

func TestInterestsJoined(t *testing.T) {
	lead := &Lead{Interests: []Interest{InterestWedding, InterestEvents}}
	if got := lead.InterestsJoined(); got != "wedding, events" {
		t.Fatalf("joined = %q", got)
	}
}

func TestValidInterest(t *testing.T) {
	if !ValidInterest(InterestNewborn) {
		t.Fatal("newborn is a valid interest")
	}
	if ValidInterest(Interest("portraits")) {
		t.Fatal("portraits is not a valid interest")
	}
}
