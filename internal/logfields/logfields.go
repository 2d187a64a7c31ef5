package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyPath       = "path"
	KeyRows       = "rows"
	KeyColumns    = "columns"
	KeyRenderer   = "renderer"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Command(cmd string) slog.Attr     { return slog.String(KeyCommand, cmd) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Rows(n int) slog.Attr             { return slog.Int(KeyRows, n) }
func Columns(names []string) slog.Attr { return slog.Any(KeyColumns, names) }
func Renderer(kind string) slog.Attr   { return slog.String(KeyRenderer, kind) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
