package capture

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// PacketStats tracks chunk packet statistics with thread-safe operations.
type PacketStats struct {
	mu           sync.Mutex
	packetCount  int64
	byteCount    int64
	droppedCount int64
	frameCount   int64
	lastReset    time.Time
}

// NewPacketStats creates a new PacketStats instance.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastReset: time.Now()}
}

// AddPacket increments packet count and byte count.
func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.packetCount++
	ps.byteCount += int64(bytes)
}

// AddDropped increments the malformed/dropped packet count.
func (ps *PacketStats) AddDropped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.droppedCount++
}

// AddFrame increments the completed frame count.
func (ps *PacketStats) AddFrame() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.frameCount++
}

// GetAndReset returns current stats and resets counters.
func (ps *PacketStats) GetAndReset() (packets, bytes, dropped, frames int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ps.lastReset)
	packets = ps.packetCount
	bytes = ps.byteCount
	dropped = ps.droppedCount
	frames = ps.frameCount

	ps.packetCount = 0
	ps.byteCount = 0
	ps.droppedCount = 0
	ps.frameCount = 0
	ps.lastReset = now

	return
}

// LogStats logs formatted per-interval statistics. Quiet intervals log nothing.
func (ps *PacketStats) LogStats() {
	packets, bytes, dropped, frames, duration := ps.GetAndReset()
	if packets == 0 && dropped == 0 {
		return
	}

	packetsPerSec := float64(packets) / duration.Seconds()
	mbPerSec := float64(bytes) / duration.Seconds() / (1024 * 1024)
	framesPerSec := float64(frames) / duration.Seconds()

	msg := fmt.Sprintf("Capture stats (/sec): %.2f MB, %.1f packets, %.1f frames", mbPerSec, packetsPerSec, framesPerSec)
	if dropped > 0 {
		msg += fmt.Sprintf(", %d dropped", dropped)
	}
	log.Print(msg)
}
