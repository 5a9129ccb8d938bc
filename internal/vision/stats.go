package vision

import (
	"fmt"
	"sync"
	"time"
)

// FrameStats tracks frame processing statistics with thread-safe operations.
// The processor itself is single-threaded, but stats are read from the API
// and monitor goroutines.
type FrameStats struct {
	mu             sync.Mutex
	frameCount     int64
	byteCount      int64
	detectionCount int64
	processNanos   int64
	lastReset      time.Time
}

// NewFrameStats creates a new FrameStats instance.
func NewFrameStats() *FrameStats {
	return &FrameStats{lastReset: time.Now()}
}

// AddFrame records one processed frame.
func (fs *FrameStats) AddFrame(bytes int, elapsed time.Duration, detected bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.frameCount++
	fs.byteCount += int64(bytes)
	fs.processNanos += elapsed.Nanoseconds()
	if detected {
		fs.detectionCount++
	}
}

// Snapshot returns current counters without resetting them.
func (fs *FrameStats) Snapshot() (frames, bytes, detections int64, processTime time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.frameCount, fs.byteCount, fs.detectionCount, time.Duration(fs.processNanos)
}

// GetAndReset returns current stats and resets counters.
func (fs *FrameStats) GetAndReset() (frames, bytes, detections int64, processTime time.Duration, interval time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	interval = now.Sub(fs.lastReset)
	frames = fs.frameCount
	bytes = fs.byteCount
	detections = fs.detectionCount
	processTime = time.Duration(fs.processNanos)

	fs.frameCount = 0
	fs.byteCount = 0
	fs.detectionCount = 0
	fs.processNanos = 0
	fs.lastReset = now

	return
}

// LogStats logs formatted per-interval statistics and resets the counters.
// Quiet intervals (no frames) log nothing.
func (fs *FrameStats) LogStats() {
	frames, bytes, detections, processTime, interval := fs.GetAndReset()
	if frames == 0 {
		return
	}

	framesPerSec := float64(frames) / interval.Seconds()
	mbPerSec := float64(bytes) / interval.Seconds() / (1024 * 1024)
	avgProcess := time.Duration(processTime.Nanoseconds() / frames)

	msg := fmt.Sprintf("Vision stats (/sec): %.1f frames, %.2f MB; avg process %v; %d detections",
		framesPerSec, mbPerSec, avgProcess, detections)
	opsf("%s", msg)
}
