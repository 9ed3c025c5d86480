package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("TRACE")
	require.NoError(t, err)
	assert.Equal(t, LevelTrace, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, LevelInfo, false))

	l.Debug(BagMonitoring, "hidden")
	l.Info(BagMonitoring, "built tree", "targets", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "INFO "))
	assert.Contains(t, out, "built tree")
	assert.Contains(t, out, "module=bag_mod")
	assert.Contains(t, out, "targets=2")

	buf.Reset()
	l.With("walk", 7).Warn(UnwindMonitoring, "spent")
	assert.Contains(t, buf.String(), "walk=7")
}

func TestModuleFilter(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})))

	DisableModule(LedgerMonitoring)
	Debug(LedgerMonitoring, "filtered")
	assert.Zero(t, buf.Len())

	EnableModules("ledger_mod, unwind_mod")
	defer DisableModule(LedgerMonitoring)
	defer DisableModule(UnwindMonitoring)
	Debug(LedgerMonitoring, "query", "coin", "0x01")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "query", rec["msg"])
	assert.Equal(t, LedgerMonitoring, rec["module"])
	assert.Equal(t, "0x01", rec["coin"])

	// Info is never filtered by module.
	buf.Reset()
	Info(CLIMonitoring, "always")
	assert.Contains(t, buf.String(), "always")
}

func TestDiscardByDefault(t *testing.T) {
	l := NewLogger(DiscardHandler())
	assert.False(t, l.Enabled(context.Background(), LevelCrit))
}
