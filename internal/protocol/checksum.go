package protocol

import "fmt"

// The LD2410 wire protocol has no real checksum: frame integrity rests on
// the header/trailer magic (see frame.go) and, inside report payloads, on a
// fixed data-head byte and tail marker pair. This file validates those
// marker bytes, which is the closest analogue to a checksum this protocol
// has.

// stripReportTail validates and removes the trailing 0x55, 0x00 marker pair
// that ends every report body, returning the body without it. The leading
// 0xAA data-head byte is checked by DecodeReport before this is called.
func stripReportTail(body []byte) ([]byte, error) {
	if len(body) < 2 || body[len(body)-2] != reportTailByte || body[len(body)-1] != reportTailCheck {
		return nil, fmt.Errorf("%w: report tail is not 0x55,0x00", ErrPayloadSchemaMismatch)
	}
	return body[:len(body)-2], nil
}
