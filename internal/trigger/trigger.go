// Package trigger pushes detections to external hardware. A sink fires once
// per detection; the daemon fans detections out to every configured sink.
package trigger

import (
	"log"

	"github.com/glint-data/flash.report/internal/vision"
)

// Sink receives one call per flash detection.
type Sink interface {
	// Fire delivers one detection. Implementations should be fast; the
	// frame loop blocks on this call.
	Fire(d vision.Detection) error
	// Close releases the sink's resources.
	Close() error
}

// LogSink writes detections to the process log. Useful as a default sink
// and for bench testing trigger wiring without hardware.
type LogSink struct{}

// Fire logs the detection.
func (LogSink) Fire(d vision.Detection) error {
	log.Printf("TRIGGER frame=%d pos=(%.4f,%.4f) confidence=%.4f magnitude=%.4f",
		d.FrameSeq, d.X, d.Y, d.Confidence, d.Magnitude)
	return nil
}

// Close is a no-op.
func (LogSink) Close() error { return nil }

// MultiSink fans one detection out to several sinks. Fire returns the first
// error but still attempts every sink.
type MultiSink []Sink

// Fire delivers the detection to each sink in order.
func (m MultiSink) Fire(d vision.Detection) error {
	var firstErr error
	for _, s := range m {
		if err := s.Fire(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink, returning the first error.
func (m MultiSink) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
