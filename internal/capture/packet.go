package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Chunk packets carry slices of one RGBA frame. A frame is split into
// chunks small enough for a UDP datagram; the header locates each payload
// within the frame so out-of-order delivery is harmless.
//
// Wire layout, big endian, 16 bytes:
//
//	offset 0  magic       uint32  "FLSH"
//	offset 4  frame_seq   uint32  sender-assigned frame number
//	offset 8  byte_offset uint32  payload position within the frame
//	offset 12 payload_len uint16  bytes following the header
//	offset 14 reserved    uint16  zero
const (
	ChunkMagic      = 0x464C5348 // "FLSH"
	ChunkHeaderSize = 16

	// MaxChunkPayload keeps chunk packets under the common 1500-byte MTU.
	MaxChunkPayload = 1400
)

var (
	ErrShortPacket = errors.New("packet shorter than chunk header")
	ErrBadMagic    = errors.New("packet magic mismatch")
)

// Chunk is one decoded frame chunk.
type Chunk struct {
	FrameSeq   uint32
	ByteOffset uint32
	Payload    []byte
}

// DecodeChunk parses a chunk packet. The returned payload aliases pkt.
func DecodeChunk(pkt []byte) (Chunk, error) {
	if len(pkt) < ChunkHeaderSize {
		return Chunk{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(pkt))
	}
	if binary.BigEndian.Uint32(pkt[0:4]) != ChunkMagic {
		return Chunk{}, ErrBadMagic
	}

	payloadLen := int(binary.BigEndian.Uint16(pkt[12:14]))
	if len(pkt) < ChunkHeaderSize+payloadLen {
		return Chunk{}, fmt.Errorf("%w: header claims %d payload bytes, %d present",
			ErrShortPacket, payloadLen, len(pkt)-ChunkHeaderSize)
	}

	return Chunk{
		FrameSeq:   binary.BigEndian.Uint32(pkt[4:8]),
		ByteOffset: binary.BigEndian.Uint32(pkt[8:12]),
		Payload:    pkt[ChunkHeaderSize : ChunkHeaderSize+payloadLen],
	}, nil
}

// EncodeChunk serializes a chunk packet into a fresh buffer. Used by the
// frame generator tool and tests.
func EncodeChunk(c Chunk) []byte {
	pkt := make([]byte, ChunkHeaderSize+len(c.Payload))
	binary.BigEndian.PutUint32(pkt[0:4], ChunkMagic)
	binary.BigEndian.PutUint32(pkt[4:8], c.FrameSeq)
	binary.BigEndian.PutUint32(pkt[8:12], c.ByteOffset)
	binary.BigEndian.PutUint16(pkt[12:14], uint16(len(c.Payload)))
	copy(pkt[ChunkHeaderSize:], c.Payload)
	return pkt
}

// SplitFrame cuts a frame into chunks of at most MaxChunkPayload bytes.
func SplitFrame(frameSeq uint32, frame []byte) []Chunk {
	var chunks []Chunk
	for off := 0; off < len(frame); off += MaxChunkPayload {
		end := off + MaxChunkPayload
		if end > len(frame) {
			end = len(frame)
		}
		chunks = append(chunks, Chunk{
			FrameSeq:   frameSeq,
			ByteOffset: uint32(off),
			Payload:    frame[off:end],
		})
	}
	return chunks
}
