package framestream

import (
	"testing"

	"github.com/hilink/ld2410/internal/protocol"
)

func TestStreamOnlyGarbage(t *testing.T) {
	s := New(nil)
	s.Push([]byte("This is garbage data"))

	if frames := s.Drain(); len(frames) != 0 {
		t.Errorf("Drain() = %d frames, want 0", len(frames))
	}
}

func TestStreamGarbageThenFrame(t *testing.T) {
	s := New(nil)
	s.Push([]byte("This is junk data"))
	s.Push(protocol.Encode(protocol.FrameCommand, []byte("STUFF")))

	frames := s.Drain()
	if len(frames) != 1 {
		t.Fatalf("Drain() = %d frames, want 1", len(frames))
	}
	if string(frames[0].Payload) != "STUFF" {
		t.Errorf("Payload = %q, want %q", frames[0].Payload, "STUFF")
	}
}

func TestStreamFullThenPartialFrame(t *testing.T) {
	frame := protocol.Encode(protocol.FrameCommand, []byte("STUFF"))
	s := New(nil)
	s.Push(frame)
	s.Push(frame[:10])

	frames := s.Drain()
	if len(frames) != 1 {
		t.Fatalf("Drain() = %d frames, want 1", len(frames))
	}
}

func TestStreamPartialThenCompleteFrame(t *testing.T) {
	frame := protocol.Encode(protocol.FrameCommand, []byte("STUFF"))
	s := New(nil)

	s.Push(frame[:4])
	if frames := s.Drain(); len(frames) != 0 {
		t.Fatalf("Drain() after partial push = %d frames, want 0", len(frames))
	}

	s.Push(frame[4:])
	frames := s.Drain()
	if len(frames) != 1 {
		t.Fatalf("Drain() after completing frame = %d frames, want 1", len(frames))
	}
}

func TestStreamCorruptedFooterThenFrame(t *testing.T) {
	frame := protocol.Encode(protocol.FrameCommand, []byte("STUFF"))
	corrupted := append(append([]byte{}, frame[:len(frame)-1]...), 0x00)

	s := New(nil)
	s.Push(corrupted)
	s.Push(frame)

	frames := s.Drain()
	if len(frames) != 1 {
		t.Fatalf("Drain() = %d frames, want 1", len(frames))
	}
	if string(frames[0].Payload) != "STUFF" {
		t.Errorf("Payload = %q, want %q", frames[0].Payload, "STUFF")
	}
}

func TestStreamMultipleFramesBackToBack(t *testing.T) {
	one := protocol.Encode(protocol.FrameCommand, []byte{0x01})
	two := protocol.Encode(protocol.FrameReport, []byte{0x02})

	s := New(nil)
	s.Push(one)
	s.Push(two)

	frames := s.Drain()
	if len(frames) != 2 {
		t.Fatalf("Drain() = %d frames, want 2", len(frames))
	}
	if frames[0].Type != protocol.FrameCommand || frames[1].Type != protocol.FrameReport {
		t.Errorf("frame types = %v, %v, want command, report", frames[0].Type, frames[1].Type)
	}
}
