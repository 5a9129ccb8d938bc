package capture

import (
	"bytes"
	"errors"
	"testing"
)

func TestChunkRoundTrip(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	orig := Chunk{FrameSeq: 42, ByteOffset: 1400, Payload: payload}

	pkt := EncodeChunk(orig)
	if len(pkt) != ChunkHeaderSize+len(payload) {
		t.Fatalf("expected %d byte packet, got %d", ChunkHeaderSize+len(payload), len(pkt))
	}

	got, err := DecodeChunk(pkt)
	if err != nil {
		t.Fatalf("DecodeChunk failed: %v", err)
	}
	if got.FrameSeq != orig.FrameSeq {
		t.Errorf("frame seq: got %d, want %d", got.FrameSeq, orig.FrameSeq)
	}
	if got.ByteOffset != orig.ByteOffset {
		t.Errorf("byte offset: got %d, want %d", got.ByteOffset, orig.ByteOffset)
	}
	if !bytes.Equal(got.Payload, orig.Payload) {
		t.Error("payload mismatch after round trip")
	}
}

func TestDecodeChunkRejectsShortPacket(t *testing.T) {
	_, err := DecodeChunk(make([]byte, ChunkHeaderSize-1))
	if !errors.Is(err, ErrShortPacket) {
		t.Fatalf("expected ErrShortPacket, got %v", err)
	}
}

func TestDecodeChunkRejectsBadMagic(t *testing.T) {
	pkt := EncodeChunk(Chunk{FrameSeq: 1, Payload: []byte{1, 2, 3}})
	pkt[0] = 'X'
	_, err := DecodeChunk(pkt)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeChunkRejectsTruncatedPayload(t *testing.T) {
	pkt := EncodeChunk(Chunk{FrameSeq: 1, Payload: make([]byte, 100)})
	_, err := DecodeChunk(pkt[:ChunkHeaderSize+50])
	if !errors.Is(err, ErrShortPacket) {
		t.Fatalf("expected ErrShortPacket for truncated payload, got %v", err)
	}
}

func TestSplitFrameCoversEveryByte(t *testing.T) {
	frame := make([]byte, 3*MaxChunkPayload+17)
	for i := range frame {
		frame[i] = byte(i % 251)
	}

	chunks := SplitFrame(7, frame)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}

	rebuilt := make([]byte, len(frame))
	total := 0
	for _, c := range chunks {
		if c.FrameSeq != 7 {
			t.Errorf("chunk carries frame seq %d, want 7", c.FrameSeq)
		}
		if len(c.Payload) > MaxChunkPayload {
			t.Errorf("chunk payload %d exceeds MaxChunkPayload", len(c.Payload))
		}
		copy(rebuilt[c.ByteOffset:], c.Payload)
		total += len(c.Payload)
	}
	if total != len(frame) {
		t.Fatalf("chunks carry %d bytes, frame has %d", total, len(frame))
	}
	if !bytes.Equal(rebuilt, frame) {
		t.Error("reassembled frame differs from original")
	}
}
