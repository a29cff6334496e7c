package wsx

import (
	"bytes"
	"testing"
)

func TestFrameRoundTripUnmasked(t *testing.T) {
	raw := EncodeFrame(OpcodeText, []byte("hello"), false)

	p := NewFrameParser()
	frame, complete, err := p.Feed(raw)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !complete {
		t.Fatal("expected a complete frame in one feed")
	}
	if frame.Opcode != OpcodeText || !frame.Fin || frame.Masked {
		t.Errorf("got opcode=%v fin=%v masked=%v", frame.Opcode, frame.Fin, frame.Masked)
	}
	if !bytes.Equal(frame.Payload, []byte("hello")) {
		t.Errorf("got payload %q", frame.Payload)
	}
}

func TestFrameRoundTripMasked(t *testing.T) {
	raw := EncodeFrame(OpcodeBinary, []byte{1, 2, 3, 4, 5}, true)

	p := NewFrameParser()
	frame, complete, err := p.Feed(raw)
	if err != nil || !complete {
		t.Fatalf("Feed: complete=%v err=%v", complete, err)
	}
	if !frame.Masked {
		t.Error("expected masked frame")
	}
	if !bytes.Equal(frame.Payload, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("got unmasked payload %v, want [1 2 3 4 5]", frame.Payload)
	}
}

func TestFrameParserAccumulatesAcrossFeeds(t *testing.T) {
	raw := EncodeFrame(OpcodeText, []byte("split-payload"), false)
	p := NewFrameParser()

	_, complete, err := p.Feed(raw[:1])
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if complete {
		t.Fatal("should not complete on a 1-byte header fragment")
	}

	frame, complete, err := p.Feed(raw[1:])
	if err != nil || !complete {
		t.Fatalf("Feed: complete=%v err=%v", complete, err)
	}
	if string(frame.Payload) != "split-payload" {
		t.Errorf("got payload %q", frame.Payload)
	}
}

func TestFrameParserRejectsReservedBits(t *testing.T) {
	raw := EncodeFrame(OpcodeText, []byte("x"), false)
	raw[0] |= 0x40 // set RSV1

	p := NewFrameParser()
	_, _, err := p.Feed(raw)
	if err == nil {
		t.Fatal("expected an error for a frame with reserved bits set")
	}
}

func TestFrameParserRejectsFragmentedControlFrame(t *testing.T) {
	raw := EncodeFrame(OpcodePing, []byte("ping"), false)
	raw[0] &^= finBit // clear FIN on a control frame

	p := NewFrameParser()
	_, _, err := p.Feed(raw)
	if err == nil {
		t.Fatal("expected an error for a fragmented control frame")
	}
}

func TestFrameParserRejectsOversizedControlFrame(t *testing.T) {
	raw := EncodeFrame(OpcodePing, make([]byte, 126), false)

	p := NewFrameParser()
	_, _, err := p.Feed(raw)
	if err == nil {
		t.Fatal("expected an error for a control frame payload over 125 bytes")
	}
}

func TestEncodeCloseFrameCarriesStatusCode(t *testing.T) {
	raw := EncodeCloseFrame(CloseNormal, "bye", false)

	p := NewFrameParser()
	frame, complete, err := p.Feed(raw)
	if err != nil || !complete {
		t.Fatalf("Feed: complete=%v err=%v", complete, err)
	}
	code, reason := decodeClosePayload(frame.Payload)
	if code != CloseNormal || reason != "bye" {
		t.Errorf("got code=%d reason=%q", code, reason)
	}
}
