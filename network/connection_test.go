package network

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodePacket(t *testing.T) {
	payload := []byte(`{"type":"draw"}`)
	raw := EncodePacket(201, payload)

	pkt, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if pkt.MsgID != 201 {
		t.Errorf("Expected msg ID 201, got %d", pkt.MsgID)
	}
	if pkt.Length != uint16(len(payload)) {
		t.Errorf("Expected length %d, got %d", len(payload), pkt.Length)
	}
	if !bytes.Equal(pkt.Data, payload) {
		t.Errorf("Payload mismatch: %q", pkt.Data)
	}
}

func TestEncodePacketEmptyPayload(t *testing.T) {
	raw := EncodePacket(101, nil)
	if len(raw) != 4 {
		t.Fatalf("Expected a bare 4-byte header, got %d bytes", len(raw))
	}

	pkt, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if pkt.MsgID != 101 || pkt.Length != 0 {
		t.Errorf("Expected empty packet 101, got id=%d len=%d", pkt.MsgID, pkt.Length)
	}
}

func TestDecodePacketTruncated(t *testing.T) {
	if _, err := DecodePacket([]byte{0, 1}); err != io.ErrShortBuffer {
		t.Errorf("Expected ErrShortBuffer for short header, got %v", err)
	}

	// Header promises more data than the frame carries.
	raw := EncodePacket(7, []byte("abcdef"))
	if _, err := DecodePacket(raw[:7]); err != io.ErrShortBuffer {
		t.Errorf("Expected ErrShortBuffer for short body, got %v", err)
	}
}
