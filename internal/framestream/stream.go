// Package framestream turns a raw byte stream from the device's UART into
// a sequence of decoded protocol frames, resynchronising on garbage or
// corrupted bytes the way a live serial link occasionally produces them.
package framestream

import (
	"errors"

	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/util"
)

// Stream accumulates bytes read off the wire and yields whole frames.
// It is not safe for concurrent use; callers own their own synchronisation.
type Stream struct {
	buf    []byte
	logger util.Logger
}

// New returns an empty Stream. A nil logger discards resync diagnostics.
func New(logger util.Logger) *Stream {
	return &Stream{logger: util.OrNil(logger)}
}

// Push appends newly read bytes to the stream's internal buffer.
func (s *Stream) Push(data []byte) {
	s.buf = append(s.buf, data...)
}

// Next extracts the next whole frame from the buffer, resynchronising past
// any garbage or corrupted header it encounters along the way. It returns
// false when the buffer holds no complete frame yet; callers should Push
// more data and try again.
func (s *Stream) Next() (protocol.Frame, bool) {
	for {
		if len(s.buf) < protocol.MinFrameLen {
			return protocol.Frame{}, false
		}

		frame, n, err := protocol.DecodeFrame(s.buf)
		if err == nil {
			s.buf = s.buf[n:]
			return frame, true
		}

		if errors.Is(err, protocol.ErrTruncatedPayload) || errors.Is(err, protocol.ErrFrameTooShort) {
			// Header looks legitimate but the rest of the frame hasn't
			// arrived yet; wait for more bytes.
			return protocol.Frame{}, false
		}

		if !s.resync() {
			return protocol.Frame{}, false
		}
	}
}

// Drain extracts every whole frame currently available.
func (s *Stream) Drain() []protocol.Frame {
	var frames []protocol.Frame
	for {
		frame, ok := s.Next()
		if !ok {
			return frames
		}
		frames = append(frames, frame)
	}
}

// resync skips past bytes that don't belong to a decodable frame. It
// reports whether the buffer might still contain a frame worth retrying.
func (s *Stream) resync() bool {
	pos, _, found := protocol.FindHeader(s.buf)
	if !found {
		s.logger.Printf("framestream: no frame header in %d buffered bytes, discarding", len(s.buf))
		s.buf = s.buf[:0]
		return false
	}
	if pos > 0 {
		s.logger.Printf("framestream: skipping %d garbage bytes: % X", pos, s.buf[:pos])
		s.buf = s.buf[pos:]
		return true
	}

	// A header sits at offset 0 but DecodeFrame still rejected it (Next has
	// already returned for an incomplete frame), so its trailer is
	// corrupted. Drop exactly one byte and let the next pass search for a
	// fresh header.
	s.logger.Printf("framestream: corrupted frame at % X, skipping one byte", s.buf[:4])
	s.buf = s.buf[1:]
	return true
}
