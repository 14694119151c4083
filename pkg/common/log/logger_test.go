package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(WithOutput(&buf), WithLevel(LevelWarn))

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("filtered levels leaked: %q", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("expected levels missing: %q", out)
	}
}

func TestFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(WithOutput(&buf))

	l.Info("opened %s with %d records", "store.blob", 3)
	if !strings.Contains(buf.String(), "opened store.blob with 3 records") {
		t.Errorf("formatting failed: %q", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(WithOutput(&buf))

	l.WithField("path", "/tmp/x").WithField("records", 7).Info("recovered")

	out := buf.String()
	if !strings.Contains(out, "path=/tmp/x") || !strings.Contains(out, "records=7") {
		t.Errorf("fields missing: %q", out)
	}

	// The original logger is unchanged.
	buf.Reset()
	l.Info("plain")
	if strings.Contains(buf.String(), "path=") {
		t.Errorf("fields leaked into parent logger: %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	if LevelDebug.String() != "DEBUG" || LevelError.String() != "ERROR" {
		t.Error("level names wrong")
	}
	if Level(42).String() != "LEVEL(42)" {
		t.Error("unknown level formatting wrong")
	}
}
