package vision

// Buffer pool sizing. Capacity bounds steady-state memory; the retain gate
// stops small transient buffers from displacing frame-sized ones.
const (
	// PoolCapacity is the maximum number of spare buffers retained.
	PoolCapacity = 3

	// MinRetainBytes is the minimum capacity a released buffer must have
	// to be worth keeping.
	MinRetainBytes = 1 << 20 // 1 MiB
)

// BufferPool is a bounded LIFO cache of reusable byte buffers. It keeps the
// per-frame hot path allocation-free in steady state.
//
// A pool belongs to exactly one FrameProcessor and is not safe for
// concurrent use; the processor's single-threaded contract covers it.
type BufferPool struct {
	buffers [][]byte
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{buffers: make([][]byte, 0, PoolCapacity)}
}

// Acquire returns a buffer of exactly size bytes, reusing the most recently
// released buffer when one is available. It always succeeds. Reused buffers
// may contain stale bytes; callers overwrite the full length.
func (p *BufferPool) Acquire(size int) []byte {
	for n := len(p.buffers); n > 0; n = len(p.buffers) {
		buf := p.buffers[n-1]
		p.buffers[n-1] = nil
		p.buffers = p.buffers[:n-1]
		if cap(buf) >= size {
			return buf[:size]
		}
		// Pooled buffer is too small for this request; drop it rather
		// than hand back a short slice.
	}
	return make([]byte, size)
}

// Release returns a buffer to the pool. Buffers below the retain gate, and
// any buffer arriving while the pool is full, are discarded. The buffer's
// length is logically cleared; capacity is kept.
func (p *BufferPool) Release(buf []byte) {
	if cap(buf) < MinRetainBytes || len(p.buffers) >= PoolCapacity {
		return
	}
	p.buffers = append(p.buffers, buf[:0])
}

// Prewarm fills the pool with up to count zero-filled buffers of size bytes,
// stopping at capacity. Run at construction so even the first frames avoid
// allocation. Prewarmed buffers bypass the retain gate.
func (p *BufferPool) Prewarm(size, count int) {
	for i := 0; i < count && len(p.buffers) < PoolCapacity; i++ {
		p.buffers = append(p.buffers, make([]byte, 0, size))
	}
}

// Len reports the number of spare buffers currently held.
func (p *BufferPool) Len() int {
	return len(p.buffers)
}

// Clear empties the pool. Used at processor teardown.
func (p *BufferPool) Clear() {
	for i := range p.buffers {
		p.buffers[i] = nil
	}
	p.buffers = p.buffers[:0]
}
