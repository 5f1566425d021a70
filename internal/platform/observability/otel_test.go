package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseLevel(raw), raw)
	}
}

func TestInstrumentsFallBackToGlobalProviders(t *testing.T) {
	var instruments *Instruments
	assert.NotNil(t, instruments.Tracer("ledger"))
	assert.NotNil(t, instruments.Meter("ledger"))
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("terminal.id", "till-1"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"terminal.id":"till-1"`)
	assert.NotContains(t, out, `"source"`)
}

func TestSettingsOptions(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TERMINAL_ID", "")
	cfg := defaultSettings()
	assert.Equal(t, slog.LevelError, cfg.level)
	assert.Equal(t, "default", cfg.terminalID)

	WithLogLevel("debug")(&cfg)
	WithTerminalID("  till-9 ")(&cfg)
	WithTerminalID("")(&cfg)
	assert.Equal(t, slog.LevelDebug, cfg.level)
	assert.Equal(t, "till-9", cfg.terminalID)
}
