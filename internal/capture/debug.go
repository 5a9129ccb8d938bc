package capture

import (
	"io"
	"log"
)

var diagLogger *log.Logger

// SetLogWriter configures the diagnostic stream for the capture package.
// Pass nil to disable it.
func SetLogWriter(w io.Writer) {
	if w == nil {
		diagLogger = nil
		return
	}
	diagLogger = log.New(w, "[capture] ", log.LstdFlags|log.Lmicroseconds)
}

func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}
