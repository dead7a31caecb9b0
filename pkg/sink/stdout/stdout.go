package stdout

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/user/aperture"
)

// StdoutSink prints leads as JSON lines. It stands in for both providers in
// dry-run mode and local development.
type StdoutSink struct {
	out io.Writer
}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{out: os.Stdout}
}

// NewWriterSink writes to w instead of stdout.
func NewWriterSink(w io.Writer) *StdoutSink {
	return &StdoutSink{out: w}
}

func (s *StdoutSink) Write(ctx context.Context, lead *aperture.Lead) error {
	if lead == nil {
		return nil
	}
	enc := json.NewEncoder(s.out)
	return enc.Encode(lead)
}

func (s *StdoutSink) Ping(ctx context.Context) error {
	return nil
}

func (s *StdoutSink) Close() error {
	return nil
}
