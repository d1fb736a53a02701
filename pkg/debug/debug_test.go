package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	wasEnabled := enabled
	var buf bytes.Buffer
	SetEnabled(on)
	SetOutput(&buf)
	t.Cleanup(func() {
		SetEnabled(wasEnabled)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestLogDisabled(t *testing.T) {
	buf := capture(t, false)
	Log("hidden %d", 1)
	LogIf(true, "hidden")
	LogTiming("hidden", time.Millisecond)
	Trace("hidden")()
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := capture(t, true)
	if !Enabled() {
		t.Fatal("expected logging enabled")
	}

	Log("loaded %d roots", 3)
	LogIf(false, "skipped")
	LogIf(true, "kept")
	LogTiming("sort", 2*time.Millisecond)

	out := buf.String()
	for _, want := range []string{prefix, "loaded 3 roots", "kept", "sort took 2ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote output:\n%s", out)
	}
}

func TestTrace(t *testing.T) {
	buf := capture(t, true)
	done := Trace("obslist.Sort")
	done()

	out := buf.String()
	if !strings.Contains(out, "-> obslist.Sort") || !strings.Contains(out, "<- obslist.Sort") {
		t.Errorf("unexpected trace output:\n%s", out)
	}
}
