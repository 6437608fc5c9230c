package sysutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func restoreLogging(t *testing.T) {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevCtx := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.DefaultContextLogger = prevCtx
	})
}

func TestSetupLogging_JSON(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogging(&buf, "warn", false, "checkd")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn: %s", out)
	}
	if !strings.Contains(out, `"service":"checkd"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Fatalf("unexpected log: %s", out)
	}
}

func TestSetupLogging_ContextFallback(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogging(&buf, "info", false, "checkd")

	zerolog.Ctx(context.Background()).Info().Msg("from bare context")
	if !strings.Contains(buf.String(), "from bare context") {
		t.Fatalf("context without logger should use the global one: %q", buf.String())
	}
}

func TestSetupLogging_Pretty(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogging(&buf, "info", true, "checkd")

	log.Info().Str("check_id", "1-check-1").Msg("pretty line")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") || !strings.Contains(out, "check_id=") {
		t.Fatalf("expected console format, got %q", out)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "v1.2.0", "dev"); got != "v1.2.0" {
		t.Fatalf("got %q", got)
	}
	if got := FirstNonEmpty(" ", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}
