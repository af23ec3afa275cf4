package cmdlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"recapbot/internal/logging"
)

func TestRunLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Options{Level: "info", Writer: &buf})

	if err := Run("weekly", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := Run("weekly", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "weekly_ok") || !strings.Contains(out, "weekly_error") {
		t.Fatalf("missing outcome lines: %s", out)
	}
}
