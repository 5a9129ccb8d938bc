package capture

import (
	"time"

	"github.com/glint-data/flash.report/internal/timeutil"
)

// FrameAssembler accumulates chunk packets into complete frames. Chunks may
// arrive out of order; a frame completes when every byte of the configured
// frame size has been received. Incomplete frames are evicted after a
// timeout, or oldest-first when too many are pending.
type FrameAssembler struct {
	frameSize   int
	maxPending  int
	timeout     time.Duration
	clock       timeutil.Clock
	onFrame     func(frameSeq uint32, frame []byte)
	pending     map[uint32]*partialFrame
	framesBuilt int64
	framesLost  int64
}

type partialFrame struct {
	data      []byte
	received  map[uint32]int // byte offset -> payload length
	bytesGot  int
	firstSeen time.Time
}

// AssemblerConfig configures a FrameAssembler.
type AssemblerConfig struct {
	FrameSize  int                              // exact frame length in bytes (width*height*4)
	MaxPending int                              // max frames under assembly; default 4
	Timeout    time.Duration                    // stale-frame eviction; default 250ms
	Clock      timeutil.Clock                   // defaults to the real clock
	OnFrame    func(frameSeq uint32, frame []byte) // called with each completed frame
}

// NewFrameAssembler creates an assembler. OnFrame is invoked synchronously
// from AddChunk; the frame buffer is owned by the assembler and only valid
// for the duration of the callback.
func NewFrameAssembler(cfg AssemblerConfig) *FrameAssembler {
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &FrameAssembler{
		frameSize:  cfg.FrameSize,
		maxPending: cfg.MaxPending,
		timeout:    cfg.Timeout,
		clock:      cfg.Clock,
		onFrame:    cfg.OnFrame,
		pending:    make(map[uint32]*partialFrame),
	}
}

// AddChunk folds one decoded chunk into its frame. Returns true when the
// chunk completed a frame.
func (a *FrameAssembler) AddChunk(c Chunk) bool {
	a.evictStale()

	end := int(c.ByteOffset) + len(c.Payload)
	if end > a.frameSize || len(c.Payload) == 0 {
		// Chunk does not fit the configured geometry; a sender with a
		// different frame size is talking to the wrong port.
		return false
	}

	pf, ok := a.pending[c.FrameSeq]
	if !ok {
		if len(a.pending) >= a.maxPending {
			a.evictOldest()
		}
		pf = &partialFrame{
			data:      make([]byte, a.frameSize),
			received:  make(map[uint32]int),
			firstSeen: a.clock.Now(),
		}
		a.pending[c.FrameSeq] = pf
	}

	if prev, dup := pf.received[c.ByteOffset]; dup && prev >= len(c.Payload) {
		return false // duplicate chunk
	}
	copy(pf.data[c.ByteOffset:end], c.Payload)
	pf.received[c.ByteOffset] = len(c.Payload)

	pf.bytesGot = 0
	for _, n := range pf.received {
		pf.bytesGot += n
	}
	if pf.bytesGot < a.frameSize {
		return false
	}

	delete(a.pending, c.FrameSeq)
	a.framesBuilt++
	if a.onFrame != nil {
		a.onFrame(c.FrameSeq, pf.data)
	}
	return true
}

// Pending reports the number of frames currently under assembly.
func (a *FrameAssembler) Pending() int { return len(a.pending) }

// FramesBuilt reports completed frames since construction.
func (a *FrameAssembler) FramesBuilt() int64 { return a.framesBuilt }

// FramesLost reports evicted incomplete frames since construction.
func (a *FrameAssembler) FramesLost() int64 { return a.framesLost }

func (a *FrameAssembler) evictStale() {
	now := a.clock.Now()
	for seq, pf := range a.pending {
		if now.Sub(pf.firstSeen) > a.timeout {
			delete(a.pending, seq)
			a.framesLost++
			diagf("evicted stale frame %d (%d/%d bytes)", seq, pf.bytesGot, a.frameSize)
		}
	}
}

func (a *FrameAssembler) evictOldest() {
	var oldestSeq uint32
	var oldest *partialFrame
	for seq, pf := range a.pending {
		if oldest == nil || pf.firstSeen.Before(oldest.firstSeen) {
			oldestSeq, oldest = seq, pf
		}
	}
	if oldest != nil {
		delete(a.pending, oldestSeq)
		a.framesLost++
		diagf("evicted frame %d under pending pressure (%d/%d bytes)", oldestSeq, oldest.bytesGot, a.frameSize)
	}
}
