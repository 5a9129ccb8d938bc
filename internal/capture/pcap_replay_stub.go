//go:build !pcap
// +build !pcap

package capture

import (
	"context"
	"errors"
)

// ReplayConfig configures PCAP replay behavior.
type ReplayConfig struct {
	SpeedMultiplier float64
	UDPPort         int
}

// ErrPCAPNotBuilt is returned when the binary was built without the pcap tag.
var ErrPCAPNotBuilt = errors.New("pcap support not built in (rebuild with -tags pcap)")

// ReplayPCAPFile is unavailable without the pcap build tag.
func ReplayPCAPFile(ctx context.Context, pcapFile string, assembler *FrameAssembler, stats PacketStatsInterface, config ReplayConfig) error {
	return ErrPCAPNotBuilt
}
