package protocol

import "encoding/binary"

// Encode serialises a whole frame: header magic, little-endian length,
// payload, trailer magic.
func Encode(t FrameType, payload []byte) []byte {
	header := headerFor(t)
	trailer := trailerFor(t)

	buf := make([]byte, 0, headerLen+lengthLen+len(payload)+trailerLen)
	buf = append(buf, header[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, trailer[:]...)
	return buf
}

// DecodeFrame attempts to decode one whole frame starting at buf[0].
// It returns the number of bytes consumed from buf on success.
//
// DecodeFrame requires buf to already start with a recognised header; the
// frame stream is responsible for resynchronising on garbage bytes before
// calling it.
func DecodeFrame(buf []byte) (Frame, int, error) {
	frameType, ok := detectHeader(buf)
	if !ok {
		return Frame{}, 0, ErrBadMagic
	}
	if len(buf) < headerLen+lengthLen {
		return Frame{}, 0, ErrFrameTooShort
	}

	length := int(binary.LittleEndian.Uint16(buf[headerLen : headerLen+lengthLen]))
	total := headerLen + lengthLen + length + trailerLen
	if len(buf) < total {
		return Frame{}, 0, ErrTruncatedPayload
	}

	payloadStart := headerLen + lengthLen
	payloadEnd := payloadStart + length
	trailer := trailerFor(frameType)
	if !matches(buf[payloadEnd:total], trailer[:]) {
		return Frame{}, 0, ErrBadMagic
	}

	payload := make([]byte, length)
	copy(payload, buf[payloadStart:payloadEnd])

	return Frame{Type: frameType, Payload: payload}, total, nil
}
