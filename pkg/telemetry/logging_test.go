package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConfigureSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "debug", "json")

	logger.InfoContext(context.Background(), "tick", slog.Int("agents", 3))

	out := buf.String()
	if !strings.Contains(out, `"msg":"tick"`) {
		t.Fatalf("expected json output, got %s", out)
	}
	if !strings.Contains(out, `"agents":3`) {
		t.Fatalf("expected attribute in output, got %s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("level %q: expected %v, got %v", in, want, got)
		}
	}
}

func TestTextFormatWithoutSpanIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "text")

	logger.Info("startup")

	out := buf.String()
	if strings.Contains(out, "trace_id") {
		t.Fatalf("expected no trace_id without active span, got %s", out)
	}
}
