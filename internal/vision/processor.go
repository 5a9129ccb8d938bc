package vision

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFrameSize is returned by Process when the input length does not
// equal the configured frame size. Silently copying a prefix would leave
// stale pooled bytes in the remainder, so the contract is strict equality.
var ErrInvalidFrameSize = errors.New("invalid frame size")

// Option configures a FrameProcessor at construction.
type Option func(*FrameProcessor)

// WithPool injects a buffer pool. The default is a fresh pool per processor;
// sharing one pool across processors with different frame sizes makes them
// contend for the same slots and is not recommended.
func WithPool(p *BufferPool) Option {
	return func(fp *FrameProcessor) { fp.pool = p }
}

// WithBrightnessThreshold overrides the default brightness threshold.
func WithBrightnessThreshold(t float64) Option {
	return func(fp *FrameProcessor) { fp.cfg.BrightnessThreshold = t }
}

// WithMotionThreshold overrides the default motion threshold.
func WithMotionThreshold(t float64) Option {
	return func(fp *FrameProcessor) { fp.cfg.MotionThreshold = t }
}

// FrameProcessor drives the per-frame analysis pipeline: motion estimation
// between consecutive frames, brightness localization at the motion site,
// and confidence scoring. It owns the previous-frame state and the buffer
// pool hand-off.
//
// Calls must be strictly sequential; previous-frame mutation is
// unsynchronized and concurrent Process calls on one instance are undefined.
type FrameProcessor struct {
	cfg       ProcessorConfig
	frameSize int
	sessionID string

	pool       *BufferPool
	motion     *MotionEstimator
	brightness *BrightnessLocalizer

	prev     []byte // previous frame, exclusively owned; nil before first call
	frameSeq uint64
	stats    *FrameStats
}

// NewFrameProcessor constructs a processor for a fixed frame geometry.
// Non-positive width or height is a configuration error, reported here and
// never retried.
func NewFrameProcessor(width, height int, opts ...Option) (*FrameProcessor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame geometry must be positive, got %dx%d", width, height)
	}

	fp := &FrameProcessor{
		cfg: ProcessorConfig{
			Width:               width,
			Height:              height,
			BrightnessThreshold: DefaultBrightnessThreshold,
			MotionThreshold:     DefaultMotionThreshold,
		},
		sessionID: uuid.New().String(),
		stats:     NewFrameStats(),
	}
	for _, opt := range opts {
		opt(fp)
	}

	fp.frameSize = fp.cfg.FrameSize()
	if fp.pool == nil {
		fp.pool = NewBufferPool()
	}
	fp.pool.Prewarm(fp.frameSize, PoolCapacity)

	fp.motion = NewMotionEstimator(width, height, fp.cfg.MotionThreshold)
	fp.brightness = NewBrightnessLocalizer(width, height)
	return fp, nil
}

// Process analyzes one frame. It returns a Detection when a flash event is
// found, nil otherwise; the only error is ErrInvalidFrameSize. Each call is
// atomic from the caller's perspective: no partial results, no suspension.
func (fp *FrameProcessor) Process(raw []byte) (*Detection, error) {
	if len(raw) != fp.frameSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d (%dx%d RGBA)",
			ErrInvalidFrameSize, len(raw), fp.frameSize, fp.cfg.Width, fp.cfg.Height)
	}

	start := time.Now()
	current := fp.pool.Acquire(fp.frameSize)
	copy(current, raw)
	fp.frameSeq++

	var det *Detection
	if fp.prev != nil {
		m := fp.motion.Estimate(current, fp.prev)
		if m.Detected {
			b := fp.brightness.Localize(current, m.CentroidX, m.CentroidY)
			if b.Peak > fp.cfg.BrightnessThreshold {
				det = scoreDetection(m, b, fp.frameSeq)
			}
		}
		fp.pool.Release(fp.prev)
	}
	fp.prev = current

	fp.stats.AddFrame(len(raw), time.Since(start), det != nil)
	if det != nil {
		diagf("detection frame=%d pos=(%.3f,%.3f) conf=%.3f mag=%.3f peak=%.3f",
			det.FrameSeq, det.X, det.Y, det.Confidence, det.Magnitude, det.PeakBrightness)
	}
	return det, nil
}

// scoreDetection combines motion magnitude and peak brightness into the
// final confidence. Both inputs are nominally in [0,1]; the mean is left
// unclamped to preserve the calibrated behavior of the original detector.
func scoreDetection(m MotionResult, b BrightnessResult, frameSeq uint64) *Detection {
	return &Detection{
		X:              b.X,
		Y:              b.Y,
		Confidence:     (b.Peak + m.Magnitude) / 2,
		Magnitude:      m.Magnitude,
		PeakBrightness: b.Peak,
		FrameSeq:       frameSeq,
	}
}

// SetThresholds updates the detection thresholds for subsequent frames.
// Callers must serialize this with Process, same as any other call on the
// processor.
func (fp *FrameProcessor) SetThresholds(brightness, motion float64) {
	fp.cfg.BrightnessThreshold = brightness
	fp.cfg.MotionThreshold = motion
	fp.motion.threshold = motion
}

// Config returns a copy of the processor configuration.
func (fp *FrameProcessor) Config() ProcessorConfig { return fp.cfg }

// SessionID identifies this processor instance's run.
func (fp *FrameProcessor) SessionID() string { return fp.sessionID }

// FrameSeq returns the number of frames processed so far.
func (fp *FrameProcessor) FrameSeq() uint64 { return fp.frameSeq }

// Stats exposes the processor's frame statistics.
func (fp *FrameProcessor) Stats() *FrameStats { return fp.stats }

// Pool exposes the processor's buffer pool (read-mostly; used by tests and
// the monitor surface to report occupancy).
func (fp *FrameProcessor) Pool() *BufferPool { return fp.pool }

// Close releases the held previous frame into the pool and empties the pool.
// The processor remains callable afterward but loses its prewarm benefit
// until the pool refills through normal release traffic.
func (fp *FrameProcessor) Close() {
	if fp.prev != nil {
		fp.pool.Release(fp.prev)
		fp.prev = nil
	}
	fp.pool.Clear()
}
