package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "info", Format: FormatJSON})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("job finished", "stage", "harvest", "uploaded", 2)

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "job finished" {
		t.Errorf("unexpected msg %v", record["msg"])
	}
	if record["stage"] != "harvest" {
		t.Errorf("unexpected stage %v", record["stage"])
	}
}

func TestNew_LogfmtFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: FormatLogfmt})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Warn("skipping malformed message", "bytes", 3)

	out := buf.String()
	if !strings.Contains(out, "level=warn") || !strings.Contains(out, "bytes=3") {
		t.Errorf("unexpected logfmt output %q", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn", Format: FormatLogfmt})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error to be logged, got %q", buf.String())
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad level", Options{Level: "loud"}},
		{"bad format", Options{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&bytes.Buffer{}, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	// must not panic
	Discard().Error("dropped", "err", "nothing")
}
