package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInfoWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Writer: &buf, RunID: "r-1"})
	Info("fetch_page", map[string]any{"channel": "C1", "events": 3})
	Debug("hidden", nil)

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got["message"] != "fetch_page" || got["channel"] != "C1" || got["run_id"] != "r-1" {
		t.Fatalf("unexpected entry: %v", got)
	}
	if got["level"] != "info" {
		t.Fatalf("level=%v", got["level"])
	}
}
