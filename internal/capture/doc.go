// Package capture owns frame ingestion over the network.
//
// Responsibilities: receiving frame chunk packets over UDP, reassembling
// them into complete RGBA frames, and PCAP replay of recorded chunk
// streams. This layer produces raw frames consumed by the vision pipeline;
// it has no inward dependency on detection logic.
package capture
