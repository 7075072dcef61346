// Package testemulator plays the device side of the wire protocol over an
// in-memory net.Pipe, so the session engine and the public façade can be
// exercised end to end without real hardware.
package testemulator

import (
	"net"
	"sync"

	"github.com/hilink/ld2410/internal/framestream"
	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/util"
)

// Emulator is a minimal stand-in for an LD2410 module: it acks the command
// set a client actually exercises and can be told to emit report frames on
// demand.
type Emulator struct {
	conn   net.Conn
	stream *framestream.Stream
	wg     sync.WaitGroup
	stop   chan struct{}

	mu          sync.Mutex
	configuring bool
	resolution  protocol.ResolutionIndex
	auxControl  protocol.AuxiliaryControlReply
	params      protocol.ParametersReadReply
	silence     map[protocol.CommandCode]bool
}

// SilenceAck makes the emulator accept but never ack the next command with
// the given code, for exercising a client's ack-timeout handling. The
// silence is consumed by the next matching command.
func (e *Emulator) SilenceAck(code protocol.CommandCode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.silence == nil {
		e.silence = make(map[protocol.CommandCode]bool)
	}
	e.silence[code] = true
}

// New starts an Emulator on an in-memory net.Pipe and returns the
// client-facing connection to hand to transport/session code as a Port.
func New() (net.Conn, *Emulator) {
	clientConn, deviceConn := net.Pipe()
	return clientConn, NewOnConn(deviceConn)
}

// NewOnConn starts an Emulator that plays the device side of the wire
// protocol over an already-established connection, such as one accepted
// from a TCP listener or a real serial port opened for standalone demo use.
// The emulator takes ownership of conn and closes it from Close.
func NewOnConn(conn net.Conn) *Emulator {
	e := &Emulator{
		conn:       conn,
		stream:     framestream.New(util.NilLogger()),
		stop:       make(chan struct{}),
		resolution: protocol.Resolution75cm,
		params: protocol.ParametersReadReply{
			MaxDistanceGate:           8,
			MotionMaxDistanceGate:     8,
			StandstillMaxDistanceGate: 8,
			NoOneIdleDuration:         5,
		},
	}
	for i := range e.params.MotionSensitivity {
		e.params.MotionSensitivity[i] = 50
		e.params.StandstillSensitivity[i] = 40
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// Close stops the emulator and closes its side of the connection.
func (e *Emulator) Close() error {
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
	err := e.conn.Close()
	e.wg.Wait()
	return err
}

// SendReport writes a report frame to the client, as if the device had
// produced it during normal (non-configuring) operation.
func (e *Emulator) SendReport(basic protocol.BasicReport) error {
	body := []byte{byte(protocol.ReportBasic), 0xAA}
	body = append(body, encodeBasicBody(basic)...)
	body = append(body, 0x55, 0x00)
	_, err := e.conn.Write(protocol.Encode(protocol.FrameReport, body))
	return err
}

func encodeBasicBody(b protocol.BasicReport) []byte {
	out := make([]byte, 0, 9)
	out = append(out, byte(b.Status))
	out = appendU16(out, b.MotionDistance)
	out = append(out, b.MotionEnergy)
	out = appendU16(out, b.StandstillDistance)
	out = append(out, b.StandstillEnergy)
	out = appendU16(out, b.DetectionDistance)
	return out
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func (e *Emulator) run() {
	defer e.wg.Done()
	buf := make([]byte, 512)
	for {
		n, err := e.conn.Read(buf)
		if err != nil {
			return
		}
		e.stream.Push(buf[:n])
		for {
			frame, ok := e.stream.Next()
			if !ok {
				break
			}
			if frame.Type != protocol.FrameCommand {
				continue
			}
			e.handleCommand(frame.Payload)
		}
	}
}

func (e *Emulator) handleCommand(payload []byte) {
	if len(payload) < 2 {
		return
	}
	code := protocol.CommandCode(payload[0])
	args := payload[2:]

	var data []byte
	status := protocol.StatusSuccess
	closeAfterAck := false

	e.mu.Lock()
	switch code {
	case protocol.ConfigEnable:
		e.configuring = true
		data = append(appendU16(nil, 1), appendU16(nil, 64)...)
	case protocol.ConfigDisable:
		e.configuring = false
	case protocol.ParametersWrite:
		if len(args) >= 18 {
			e.params.MotionMaxDistanceGate = uint8(args[2])
			e.params.StandstillMaxDistanceGate = uint8(args[8])
			e.params.NoOneIdleDuration = uint16(args[14])
		}
	case protocol.ParametersRead:
		data = encodeParametersReadReply(e.params)
	case protocol.EngineeringEnable, protocol.EngineeringDisable:
		// no persisted state needed for the emulator's purposes
	case protocol.GateSensitivitySet:
		// accepted unconditionally
	case protocol.FirmwareVersionCmd:
		data = []byte{0x00, 0x01, 0x04, 0x02, 0x11, 0x25, 0x02, 0x23}
	case protocol.BaudRateSet:
		// accepted unconditionally; a real device would require a restart
	case protocol.FactoryReset:
		// accepted unconditionally
	case protocol.ModuleRestart:
		// A real device reboots instead of continuing to serve the
		// connection; close it once the ack is out so clients see the same
		// transport drop a reboot produces.
		e.configuring = false
		closeAfterAck = true
	case protocol.BluetoothSet:
		// accepted unconditionally
	case protocol.BluetoothMACGet:
		data = []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	case protocol.BluetoothPasswordSet, protocol.BluetoothAuthenticate:
		// accepted unconditionally
	case protocol.DistanceResolutionSet:
		if len(args) >= 2 {
			e.resolution = protocol.ResolutionIndex(uint16(args[0]) | uint16(args[1])<<8)
		}
	case protocol.DistanceResolutionGet:
		data = appendU16(nil, uint16(e.resolution))
	case protocol.AuxiliaryControlSet:
		if len(args) >= 4 {
			e.auxControl.Control = protocol.AuxiliaryControl(args[0])
			e.auxControl.Threshold = args[1]
			e.auxControl.Default = protocol.OutPinLevel(uint16(args[2]) | uint16(args[3])<<8)
		}
	case protocol.AuxiliaryControlGet:
		data = append([]byte{byte(e.auxControl.Control), e.auxControl.Threshold}, appendU16(nil, uint16(e.auxControl.Default))...)
	default:
		status = protocol.StatusFailure
	}
	silenced := e.silence[code]
	if silenced {
		delete(e.silence, code)
	}
	e.mu.Unlock()

	if silenced {
		return
	}

	ack := []byte{byte(code), 0x01}
	ack = appendU16(ack, uint16(status))
	if status == protocol.StatusSuccess {
		ack = append(ack, data...)
	}
	_, _ = e.conn.Write(protocol.Encode(protocol.FrameCommand, ack))

	if closeAfterAck {
		_ = e.conn.Close()
	}
}

func encodeParametersReadReply(p protocol.ParametersReadReply) []byte {
	out := []byte{0xAA, p.MaxDistanceGate, p.MotionMaxDistanceGate, p.StandstillMaxDistanceGate}
	out = append(out, p.MotionSensitivity[:]...)
	out = append(out, p.StandstillSensitivity[:]...)
	out = appendU16(out, p.NoOneIdleDuration)
	return out
}
