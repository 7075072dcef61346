// Package transport defines the byte-stream collaborator a session reads
// and writes, and a go.bug.st/serial-backed implementation of it.
package transport

import "io"

// Port is the raw byte stream a session talks to. The LD2410 protocol is
// binary-framed rather than newline-delimited, so the session reads and
// writes bytes directly instead of going through a line-oriented API.
type Port interface {
	io.ReadWriteCloser
}
