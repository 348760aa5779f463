package oioproxy

import (
	"log/slog"
	"os"
)

// Log is the package-level logger used throughout oioproxy. Callers (in
// particular cmd/oioproxy) may replace it at startup to change the
// level, format, or destination.
var Log = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetLogger replaces the package-level logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	Log = l
}

// logger returns a child logger carrying the identity of the component
// (e.g. "resolver", "pool", "router") and its configured id, the way a
// request-scoped log line should always show where it came from.
func logger(component, id string) *slog.Logger {
	return Log.With("component", component, "id", id)
}
