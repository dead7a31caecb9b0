package smtp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gsoultan/gsmail"
	"github.com/gsoultan/gsmail/smtp"
	"github.com/user/aperture"
)

// SmtpSink delivers leads as plain SMTP email via gsmail. It serves as the
// fallback primary channel when the REST provider is unavailable.
type SmtpSink struct {
	sender gsmail.Sender
	from   string
	to     []string

	lastPing time.Time
	pingMu   sync.Mutex
}

const smtpPingInterval = 5 * time.Minute

// NewSmtpSink creates a new SmtpSink.
func NewSmtpSink(host string, port int, username, password string, ssl bool, from string, to []string) *SmtpSink {
	return &SmtpSink{
		sender: smtp.NewSender(host, port, username, password, ssl),
		from:   from,
		to:     normalizeAndDedupeEmails(to),
	}
}

// Write sends the lead as an email.
func (s *SmtpSink) Write(ctx context.Context, lead *aperture.Lead) error {
	if lead == nil {
		return nil
	}

	subject := fmt.Sprintf("New inquiry from %s", lead.FullName)
	if lead.HighPriority {
		subject = fmt.Sprintf("New wedding inquiry from %s", lead.FullName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.FullName)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.EventDate != "" {
		fmt.Fprintf(&b, "Event date: %s\n", lead.EventDate)
	}
	fmt.Fprintf(&b, "Location: %s\n", lead.EventLocation)
	fmt.Fprintf(&b, "Interested in: %s\n", lead.InterestsJoined())
	if lead.Vision != "" {
		fmt.Fprintf(&b, "\nVision:\n%s\n", lead.Vision)
	}
	fmt.Fprintf(&b, "\nReceived %s at %s\n", lead.SubmittedAtDate, lead.SubmittedAtTime)

	email := gsmail.Email{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Body:    []byte(b.String()),
	}

	return s.sender.Send(ctx, email)
}

// Ping checks the connection to the SMTP server.
func (s *SmtpSink) Ping(ctx context.Context) error {
	s.pingMu.Lock()
	defer s.pingMu.Unlock()

	// Rate limit pings to avoid spamming the SMTP server.
	if !s.lastPing.IsZero() && time.Since(s.lastPing) < smtpPingInterval {
		return nil
	}

	err := s.sender.Ping(ctx)
	if err == nil {
		s.lastPing = time.Now()
	}
	return err
}

// Close closes the SMTP sink.
func (s *SmtpSink) Close() error {
	return nil
}

// SetSender replaces the underlying sender. Tests use it to inject a fake.
func (s *SmtpSink) SetSender(sender gsmail.Sender) {
	s.sender = sender
}

// normalizeAndDedupeEmails lowercases, trims, removes empties and duplicates preserving order.
func normalizeAndDedupeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		n := strings.ToLower(strings.TrimSpace(e))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
