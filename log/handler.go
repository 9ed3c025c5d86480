package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// DiscardHandler returns a handler that drops every record.
func DiscardHandler() slog.Handler {
	return gethlog.DiscardHandler()
}

// NewTerminalHandlerWithLevel returns a handler which only emits records at
// lvl or above, formatted as
//
//	INFO [10-19|12:00:01.000] msg                     key=value key=value
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return gethlog.NewTerminalHandlerWithLevel(wr, lvl, useColor)
}
