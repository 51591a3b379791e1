package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger records JSON events at every level for assertions.
type TestLogger struct {
	*zerolog.Logger
	buf bytes.Buffer
}

// NewTestLogger returns a capturing logger. The global level is lowered to
// trace until the test ends.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tl := &TestLogger{}
	logger := zerolog.New(&tl.buf).Level(zerolog.TraceLevel)
	tl.Logger = &logger
	return tl
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string {
	return tl.buf.String()
}

// Events returns one JSON document per logged event.
func (tl *TestLogger) Events() []string {
	out := strings.TrimSpace(tl.buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Contains reports whether substr appears in the output.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.buf.String(), substr)
}

// NewNopLogger returns a logger that drops every event.
func NewNopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
