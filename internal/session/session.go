// Package session implements the connection and configuration-mode state
// machine: one reader goroutine demultiplexing acks and reports off the
// wire, and a single in-flight command slot guarded by a mutex.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hilink/ld2410/internal/framestream"
	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/report"
	"github.com/hilink/ld2410/internal/transport"
	"github.com/hilink/ld2410/internal/util"
)

// State is the connection/configuration state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateConfiguring
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateConfiguring:
		return "configuring"
	default:
		return "unknown"
	}
}

// readBufferSize is the chunk size used for each transport.Read call.
const readBufferSize = 512

// Session owns a transport and runs the reader goroutine that keeps the
// pending command slot and the report distributor fed.
type Session struct {
	port            transport.Port
	logger          util.Logger
	commandTimeout  time.Duration
	reportQueueSize int

	issueMu sync.Mutex // serialises Issue calls end to end

	mu               sync.Mutex // guards state, pending, and writes to port
	state            State
	pending          *pendingRequest
	expectingRestart bool
	disconnectCause  error

	stream *framestream.Stream
	dist   *report.Distributor

	stop chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Session around an already-open transport. Open must be
// called before issuing commands or observing reports.
func New(port transport.Port, logger util.Logger, commandTimeout time.Duration, reportQueueSize int) *Session {
	logger = util.OrNil(logger)
	return &Session{
		port:            port,
		logger:          logger,
		commandTimeout:  commandTimeout,
		reportQueueSize: reportQueueSize,
		stream:          framestream.New(logger),
		dist:            report.New(),
		stop:            make(chan struct{}),
	}
}

// ReportQueueSize returns the configured subscriber buffer depth (0 means
// callers should fall back to report.DefaultQueueSize).
func (s *Session) ReportQueueSize() int {
	return s.reportQueueSize
}

// Open starts the reader goroutine. ctx is accepted for symmetry with
// Issue/EnterConfig and so a future transport could use it for an initial
// handshake; the current transport is synchronous to open.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		return ErrAlreadyOpen
	}
	s.state = StateConnected
	s.wg.Add(1)
	go s.readLoop()
	return nil
}

// Close stops the reader goroutine and closes the transport. It is
// idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		return nil
	default:
		close(s.stop)
	}
	s.state = StateDisconnected
	s.mu.Unlock()

	closeErr := s.port.Close()
	s.wg.Wait()

	if closeErr != nil {
		return fmt.Errorf("session: close transport: %w", closeErr)
	}
	return nil
}

// Distributor returns the report fan-out for this session.
func (s *Session) Distributor() *report.Distributor {
	return s.dist
}

// State returns the current connection/configuration state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EnterConfig puts the session into configuration mode. It fails with
// ErrAlreadyConfiguring if already configuring.
func (s *Session) EnterConfig(ctx context.Context) (protocol.ConfigEnableReply, error) {
	s.mu.Lock()
	switch s.state {
	case StateDisconnected:
		err := s.disconnectedErr()
		s.mu.Unlock()
		return protocol.ConfigEnableReply{}, err
	case StateConfiguring:
		s.mu.Unlock()
		return protocol.ConfigEnableReply{}, ErrAlreadyConfiguring
	}
	s.mu.Unlock()

	reply, err := s.Issue(ctx, protocol.ConfigEnable, protocol.BuildEnterConfigArgs())
	if err != nil {
		return protocol.ConfigEnableReply{}, err
	}
	parsed, err := protocol.ParseConfigEnableReply(reply.Data)
	if err != nil {
		return protocol.ConfigEnableReply{}, err
	}

	s.mu.Lock()
	s.state = StateConfiguring
	s.mu.Unlock()
	return parsed, nil
}

// LeaveConfig takes the session back out of configuration mode.
func (s *Session) LeaveConfig(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConfiguring {
		s.mu.Unlock()
		return ErrNotConfiguring
	}
	s.mu.Unlock()

	if _, err := s.Issue(ctx, protocol.ConfigDisable, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()
	return nil
}

// ForceLeaveConfig drops the session back to StateConnected without issuing
// ConfigDisable, for use after a command (ModuleRestart) that tears down
// configuration mode on the device without acking a leave-config request.
func (s *Session) ForceLeaveConfig() {
	s.mu.Lock()
	if s.state == StateConfiguring {
		s.state = StateConnected
	}
	s.mu.Unlock()
}

// NoteRestart records that a ModuleRestart command just acked, so the
// reader goroutine treats the device's subsequent disconnect as the expected
// consequence of the reboot rather than a transport failure, and the next
// operation attempted against the session surfaces ErrModuleRestarted
// instead of the generic ErrNotOpen.
func (s *Session) NoteRestart() {
	s.mu.Lock()
	s.expectingRestart = true
	s.mu.Unlock()
}

// disconnectedErr returns the error a disconnected session should report,
// consuming disconnectCause so only the first caller after a restart sees
// ErrModuleRestarted; everyone after that sees plain ErrNotOpen. Callers
// must hold s.mu.
func (s *Session) disconnectedErr() error {
	cause := s.disconnectCause
	s.disconnectCause = nil
	if cause != nil {
		return cause
	}
	return ErrNotOpen
}

func requiresConfigMode(code protocol.CommandCode) bool {
	return code != protocol.ConfigEnable && code != protocol.ConfigDisable
}

// Issue sends a single command and blocks until its ack arrives, ctx is
// done, or the session closes. Only one Issue call may be outstanding at a
// time; concurrent callers queue on issueMu.
func (s *Session) Issue(ctx context.Context, code protocol.CommandCode, args []byte) (protocol.Reply, error) {
	s.issueMu.Lock()
	defer s.issueMu.Unlock()

	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	s.mu.Lock()
	if s.state == StateDisconnected {
		err := s.disconnectedErr()
		s.mu.Unlock()
		return protocol.Reply{}, err
	}
	if requiresConfigMode(code) && s.state != StateConfiguring {
		s.mu.Unlock()
		return protocol.Reply{}, ErrNotConfiguring
	}

	req := newPendingRequest(code)
	s.pending = req

	frame := protocol.Encode(protocol.FrameCommand, protocol.EncodeCommand(code, args))
	if _, err := s.port.Write(frame); err != nil {
		s.pending = nil
		s.mu.Unlock()
		return protocol.Reply{}, &WriteError{Err: fmt.Errorf("command %s: %w", code, err)}
	}
	s.mu.Unlock()

	select {
	case res := <-req.ch:
		if res.err != nil {
			return protocol.Reply{}, res.err
		}
		if res.reply.Status != protocol.StatusSuccess {
			return res.reply, &StatusError{Code: code, Status: res.reply.Status}
		}
		return res.reply, nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == req {
			s.pending = nil
		}
		s.mu.Unlock()
		return protocol.Reply{}, ctx.Err()
	case <-s.stop:
		return protocol.Reply{}, ErrClosed
	}
}

func (s *Session) readLoop() {
	defer s.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}
			s.mu.Lock()
			if s.expectingRestart {
				s.disconnectCause = ErrModuleRestarted
			}
			s.state = StateDisconnected
			s.mu.Unlock()
			s.logger.Printf("session: transport read failed, reader stopping: %v", err)
			return
		}
		if n == 0 {
			continue
		}

		s.stream.Push(buf[:n])
		for {
			frame, ok := s.stream.Next()
			if !ok {
				break
			}
			s.handleFrame(frame)
		}
	}
}

func (s *Session) handleFrame(frame protocol.Frame) {
	switch frame.Type {
	case protocol.FrameCommand:
		reply, err := protocol.DecodeReply(frame.Payload)
		if err != nil {
			s.logger.Printf("session: malformed ack frame: %v", err)
			return
		}
		s.completePending(reply)
	case protocol.FrameReport:
		reportType, val, err := protocol.DecodeReport(frame.Payload)
		if err != nil {
			s.logger.Printf("session: malformed report frame: %v", err)
			return
		}
		s.ingestReport(reportType, val)
	}
}

func (s *Session) ingestReport(reportType protocol.ReportType, val interface{}) {
	r := report.Report{Type: reportType}
	switch v := val.(type) {
	case protocol.BasicReport:
		r.Basic = v
	case protocol.EngineeringReport:
		r.Basic = v.Basic
		eng := v
		r.Engineering = &eng
	default:
		return
	}
	s.dist.Ingest(r)
}

func (s *Session) completePending(reply protocol.Reply) {
	s.mu.Lock()
	req := s.pending
	if req == nil {
		s.mu.Unlock()
		s.logger.Printf("session: dropping ack for %s, no command in flight", reply.Code)
		return
	}
	if req.code != reply.Code {
		s.mu.Unlock()
		s.logger.Printf("session: dropping ack for %s, does not match pending command %s", reply.Code, req.code)
		return
	}
	s.pending = nil
	if reply.Code == protocol.ModuleRestart && reply.Status == protocol.StatusSuccess {
		// Mark the restart before this goroutine reads again, so the
		// device's disconnect cannot be observed ahead of NoteRestart.
		s.expectingRestart = true
	}
	s.mu.Unlock()
	req.complete(reply, nil)
}

// IsClosed reports whether Close has been called, for callers that need a
// non-blocking check outside the mutex.
func (s *Session) IsClosed() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}
