package ld2410

import (
	"fmt"

	"github.com/hilink/ld2410/internal/protocol"
)

// ConnectionError wraps a failure to open, close, or read/write the
// underlying transport.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ld2410: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandContextError is returned when the caller's context is cancelled
// before a command's ack arrives, when GetNextReport's context is done, or
// when a configuration-mode operation is attempted in the wrong state (e.g.
// entering config mode while already configuring). A command whose ack does
// not arrive within the command timeout gets a CommandReplyError instead.
type CommandContextError struct {
	Op  string
	Err error
}

func (e *CommandContextError) Error() string {
	return fmt.Sprintf("ld2410: %s: %v", e.Op, e.Err)
}

func (e *CommandContextError) Unwrap() error { return e.Err }

// CommandParamError is returned when a caller supplies an argument the
// device's command set cannot represent, such as a baud rate with no fixed
// index.
type CommandParamError struct {
	Op  string
	Err error
}

func (e *CommandParamError) Error() string {
	return fmt.Sprintf("ld2410: invalid parameter for %s: %v", e.Op, e.Err)
}

func (e *CommandParamError) Unwrap() error { return e.Err }

// CommandReplyError is returned when no ack arrives within the command
// timeout, or when an ack's payload cannot be parsed against the expected
// reply schema for the command that was issued.
type CommandReplyError struct {
	Op  string
	Err error
}

func (e *CommandReplyError) Error() string {
	return fmt.Sprintf("ld2410: missing or malformed reply for %s: %v", e.Op, e.Err)
}

func (e *CommandReplyError) Unwrap() error { return e.Err }

// CommandStatusError is returned when the device acks a command with a
// non-zero status. The device does not document status codes beyond
// success (0) and a generic failure (1); the raw value is passed through.
type CommandStatusError struct {
	Code   protocol.CommandCode
	Status protocol.ReplyStatus
}

func (e *CommandStatusError) Error() string {
	return fmt.Sprintf("ld2410: command %s failed with status %d", e.Code, e.Status)
}

// ModuleRestartedError is returned by the first operation issued after
// RestartModule's ack arrives and the device then drops the connection as
// part of rebooting. Any operation after that one sees the connection is
// simply gone and gets a ConnectionError instead.
type ModuleRestartedError struct {
	Op string
}

func (e *ModuleRestartedError) Error() string {
	return fmt.Sprintf("ld2410: %s: module was restarted, configuration context is gone", e.Op)
}
