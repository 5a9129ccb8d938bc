package capture

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"
)

// PacketStatsInterface provides packet statistics management.
type PacketStatsInterface interface {
	AddPacket(bytes int)
	AddDropped()
	AddFrame()
	LogStats()
}

// UDPListener receives frame chunk packets over UDP and feeds them to a
// FrameAssembler.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	conn        *net.UDPConn
	stats       PacketStatsInterface
	assembler   *FrameAssembler
}

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
	Stats       PacketStatsInterface
	Assembler   *FrameAssembler
}

// NewUDPListener creates a new UDP listener with the provided configuration.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	// Provide a no-op stats implementation when none is supplied to avoid
	// nil pointer dereferences in the packet handling and logging paths.
	var stats PacketStatsInterface
	if config.Stats != nil {
		stats = config.Stats
	} else {
		stats = &noopStats{}
	}

	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}

	rcvBuf := config.RcvBuf
	if rcvBuf == 0 {
		rcvBuf = 4 * 1024 * 1024
	}

	return &UDPListener{
		address:     config.Address,
		rcvBuf:      rcvBuf,
		logInterval: logInterval,
		stats:       stats,
		assembler:   config.Assembler,
	}
}

// noopStats is a PacketStatsInterface implementation that does nothing.
type noopStats struct{}

func (n *noopStats) AddPacket(bytes int) {}
func (n *noopStats) AddDropped()         {}
func (n *noopStats) AddFrame()           {}
func (n *noopStats) LogStats()           {}

// Start begins listening for chunk packets and assembling frames. It blocks
// until the context is cancelled.
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.conn = conn
	defer conn.Close()

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		log.Printf("Warning: Failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
	}

	log.Printf("UDP frame listener started on %s with receive buffer %d bytes", l.address, l.rcvBuf)

	go l.startStatsLogging(ctx)

	buffer := make([]byte, ChunkHeaderSize+MaxChunkPayload+64) // header + payload + margin

	for {
		select {
		case <-ctx.Done():
			log.Print("UDP frame listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Set read deadline to allow checking context cancellation.
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, sender, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("UDP read error: %v", err)
				continue
			}

			if err := l.handlePacket(buffer[:n]); err != nil {
				l.stats.AddDropped()
				diagf("bad packet from %v: %v", sender, err)
			}
		}
	}
}

// handlePacket decodes one chunk packet and folds it into the assembler.
func (l *UDPListener) handlePacket(pkt []byte) error {
	l.stats.AddPacket(len(pkt))

	chunk, err := DecodeChunk(pkt)
	if err != nil {
		return err
	}
	if l.assembler.AddChunk(chunk) {
		l.stats.AddFrame()
	}
	return nil
}

// startStatsLogging periodically logs packet statistics.
func (l *UDPListener) startStatsLogging(ctx context.Context) {
	// Trigger an initial stats report shortly after startup to avoid a long
	// silence on first-run. Then continue on the configured interval.
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
		l.stats.LogStats()
	}

	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}
