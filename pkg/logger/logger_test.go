package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewStampsServiceName(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf})
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"service":"stock-scorecard"`) {
		t.Errorf("expected default service stamp, got %q", out)
	}

	buf.Reset()
	log = New(Config{Level: "info", Service: "backfill", Output: &buf})
	log.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"service":"backfill"`) {
		t.Errorf("expected custom service stamp, got %q", buf.String())
	}
}

func TestNewFiltersBelowConfiguredLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line should be emitted, got %q", out)
	}
}
