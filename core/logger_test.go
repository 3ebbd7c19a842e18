package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// TestSink_LevelRouting verifies that sink levels map to logger levels
// Given: Sinks for info, WARN, error, an unknown level and no level
// When: Each logs a message
// Then: Known levels carry their level; the others are written without one
func TestSink_LevelRouting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	NewSink(logger, "info").Log("m-info")
	NewSink(logger, "WARN").Log("m-warn")
	NewSink(logger, " error ").Log("m-error")
	NewSink(logger, "verbose").Log("m-unknown")
	NewSink(logger, "").Log("m-plain")

	lines := decodeLines(t, &buf)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: %s", len(lines), buf.String())
	}

	want := []struct {
		msg   string
		level any
	}{
		{"m-info", "info"},
		{"m-warn", "warn"},
		{"m-error", "error"},
		{"m-unknown", nil},
		{"m-plain", nil},
	}
	for i, w := range want {
		if lines[i]["message"] != w.msg {
			t.Errorf("line %d message = %v, want %s", i, lines[i]["message"], w.msg)
		}
		if lines[i]["level"] != w.level {
			t.Errorf("line %d level = %v, want %v", i, lines[i]["level"], w.level)
		}
	}
}

// TestSink_NilLogger verifies that a sink without a logger discards messages
func TestSink_NilLogger(t *testing.T) {
	NewSink(nil, "info").Log("dropped")
}

// TestZerologLogger_Fields verifies structured fields and errors
func TestZerologLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden")
	logger.Error("action failed", F("id", uint64(7)), F("kind", "immediate"), F("error", errors.New("boom")))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), buf.String())
	}
	line := lines[0]
	if line["id"] != float64(7) || line["kind"] != "immediate" || line["error"] != "boom" {
		t.Errorf("fields = %v", line)
	}
}

// TestNewConsoleLogger_Level verifies level parsing with fallback
func TestNewConsoleLogger_Level(t *testing.T) {
	var buf bytes.Buffer

	NewConsoleLogger(&buf, "warn").Info("skipped")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %q", buf.String())
	}

	NewConsoleLogger(&buf, "nonsense").Info("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("unknown level should fall back to info, got %q", buf.String())
	}
}

// TestNewJSONLogger_Level verifies the JSON logger filters by level
func TestNewJSONLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "ERROR")

	logger.Warn("skipped")
	logger.Error("kept", F("turn", 3))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "kept" || lines[0]["turn"] != float64(3) {
		t.Fatalf("lines = %v", lines)
	}
	if _, ok := lines[0]["time"]; !ok {
		t.Error("missing timestamp")
	}
}
