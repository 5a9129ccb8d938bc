//go:build pcap
// +build pcap

package capture

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ReplayConfig configures PCAP replay behavior.
type ReplayConfig struct {
	// SpeedMultiplier controls replay speed (1.0 = real-time, 2.0 = 2x
	// speed, 0 = as fast as possible).
	SpeedMultiplier float64

	// UDPPort filters packets to the capture port.
	UDPPort int
}

// ReplayPCAPFile reads a recorded chunk stream and feeds it through the
// assembler, respecting original packet timing scaled by SpeedMultiplier.
func ReplayPCAPFile(ctx context.Context, pcapFile string, assembler *FrameAssembler, stats PacketStatsInterface, config ReplayConfig) error {
	if stats == nil {
		stats = &noopStats{}
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	if config.UDPPort > 0 {
		filter := fmt.Sprintf("udp port %d", config.UDPPort)
		if err := handle.SetBPFFilter(filter); err != nil {
			return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
		}
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())

	var prevTS time.Time
	packets := 0
	start := time.Now()

	for packet := range source.Packets() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		payload := udpLayer.(*layers.UDP).Payload
		if len(payload) == 0 {
			continue
		}

		// Pace replay against capture timestamps.
		ts := packet.Metadata().Timestamp
		if config.SpeedMultiplier > 0 && !prevTS.IsZero() {
			gap := ts.Sub(prevTS)
			if gap > 0 {
				time.Sleep(time.Duration(float64(gap) / config.SpeedMultiplier))
			}
		}
		prevTS = ts

		stats.AddPacket(len(payload))
		chunk, err := DecodeChunk(payload)
		if err != nil {
			stats.AddDropped()
			continue
		}
		if assembler.AddChunk(chunk) {
			stats.AddFrame()
		}
		packets++
	}

	log.Printf("PCAP replay complete: %d packets, %d frames in %v",
		packets, assembler.FramesBuilt(), time.Since(start))
	return nil
}
