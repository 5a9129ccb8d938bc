package vision

import (
	"io"
	"log"
)

var (
	opsLogger  *log.Logger
	diagLogger *log.Logger
)

// SetLogWriters configures the two logging streams for the vision package.
// Pass nil for either writer to disable that stream. Ops carries actionable
// per-interval summaries; diag carries per-detection telemetry.
func SetLogWriters(ops, diag io.Writer) {
	opsLogger = newLogger("[vision] ", ops)
	diagLogger = newLogger("[vision] ", diag)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (interval summaries, warnings).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs to the diag stream (per-detection telemetry).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}
