package session

import (
	"errors"
	"fmt"

	"github.com/hilink/ld2410/internal/protocol"
)

var (
	// ErrNotOpen is returned by operations that require an open session.
	ErrNotOpen = errors.New("session: not open")
	// ErrAlreadyOpen is returned by Open on an already-open session.
	ErrAlreadyOpen = errors.New("session: already open")
	// ErrAlreadyConfiguring is returned when EnterConfig is called while
	// the session is already in configuration mode.
	ErrAlreadyConfiguring = errors.New("session: already configuring")
	// ErrNotConfiguring is returned when LeaveConfig is called outside
	// configuration mode, or a configuration-only command is issued
	// outside it.
	ErrNotConfiguring = errors.New("session: not in configuration mode")
	// ErrClosed is returned by an Issue call that is still waiting for its
	// ack when Close is called. Operations started after Close get
	// ErrNotOpen.
	ErrClosed = errors.New("session: closed")
	// ErrModuleRestarted is returned by the first operation issued after the
	// reader goroutine observes the transport close following a
	// ModuleRestart command (see Session.NoteRestart). Later operations see
	// the plain ErrNotOpen, the same as after an ordinary Close.
	ErrModuleRestarted = errors.New("session: module restarted, connection closed")
)

// StatusError reports a non-zero ack status for a command.
type StatusError struct {
	Code   protocol.CommandCode
	Status protocol.ReplyStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("session: command %s failed with status %d", e.Code, e.Status)
}

// WriteError reports a transport failure while sending a command, as
// distinct from a failure to get a reply once the command was sent.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("session: write failed: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
