package logging

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	Configure(Options{Level: level, Output: buf})
	return buf
}

func TestConfigureFiltersByLevel(t *testing.T) {
	buf := capture(t, "warn")

	Info().Msg("filtered out")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered out") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line should pass at warn level")
	}
}

func TestConfigureUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := capture(t, "nonsense")

	Debug().Msg("below info")
	Info().Msg("at info")

	out := buf.String()
	if strings.Contains(out, "below info") {
		t.Error("debug line should be filtered at the info fallback")
	}
	if !strings.Contains(out, "at info") {
		t.Error("info line should pass at the info fallback")
	}
}

func TestConfigurePrettyWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	Configure(Options{Level: "info", Pretty: true, Output: buf})

	Info().Msg("console line")
	if !strings.Contains(buf.String(), "console line") {
		t.Error("pretty output should still carry the message")
	}
}

func TestScopedAttachesNonZeroFields(t *testing.T) {
	buf := capture(t, "debug")

	Scoped(Fields{Session: 42, Room: "town:square", Zone: "town"}).Info().Msg("scoped")

	out := buf.String()
	for _, want := range []string{`"session":42`, `"room":"town:square"`, `"zone":"town"`, "scoped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, `"mob"`) || strings.Contains(out, `"engine"`) {
		t.Errorf("zero fields should be omitted: %s", out)
	}
}

func TestWithSession(t *testing.T) {
	buf := capture(t, "debug")

	WithSession(7).Info().Msg("session line")

	out := buf.String()
	if !strings.Contains(out, `"session":7`) {
		t.Errorf("output missing session field: %s", out)
	}
}

func TestWithEngine(t *testing.T) {
	buf := capture(t, "debug")

	WithEngine("e2").Warn().Msg("engine line")

	out := buf.String()
	if !strings.Contains(out, `"engine":"e2"`) {
		t.Errorf("output missing engine field: %s", out)
	}
}
