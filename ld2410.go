package ld2410

import (
	"context"
	"errors"
	"fmt"

	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/report"
	"github.com/hilink/ld2410/internal/session"
	"github.com/hilink/ld2410/internal/transport"
)

// Client is a connection to one LD2410 device.
type Client struct {
	sess *session.Session
}

// Open opens the serial device at path and starts the client's reader
// goroutine. Callers must call Close when done.
func Open(ctx context.Context, devicePath string, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	port, err := transport.OpenSerial(devicePath, cfg.baudRate)
	if err != nil {
		return nil, &ConnectionError{Op: "open", Err: err}
	}
	return newClient(ctx, port, cfg)
}

func newClient(ctx context.Context, port transport.Port, cfg config) (*Client, error) {
	sess := session.New(port, cfg.logger, cfg.commandTimeout, cfg.reportQueueSize)
	if err := sess.Open(ctx); err != nil {
		_ = port.Close()
		return nil, &ConnectionError{Op: "open", Err: err}
	}
	return &Client{sess: sess}, nil
}

// Close stops the reader goroutine and closes the serial port.
func (c *Client) Close() error {
	if err := c.sess.Close(); err != nil {
		return &ConnectionError{Op: "close", Err: err}
	}
	return nil
}

// EnterConfig puts the device into configuration mode. Most callers should
// use Configure or one of the Get/Set methods instead, which manage this
// automatically; EnterConfig is for batching several operations in one
// configuration-mode scope.
func (c *Client) EnterConfig(ctx context.Context) error {
	_, err := c.sess.EnterConfig(ctx)
	return translateErr("EnterConfig", err)
}

// LeaveConfig takes the device back out of configuration mode.
func (c *Client) LeaveConfig(ctx context.Context) error {
	return translateErr("LeaveConfig", c.sess.LeaveConfig(ctx))
}

// Configure runs fn with the device in configuration mode, entering it
// first if necessary and always leaving it afterward. If the session is
// already configuring (e.g. called from within another Configure), fn runs
// directly without a nested enter/leave.
func (c *Client) Configure(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.sess.State() == session.StateConfiguring {
		return fn(ctx)
	}
	if _, err := c.sess.EnterConfig(ctx); err != nil {
		// Left untranslated: every Configure caller passes its own result
		// through translateErr already, and translating twice would wrap an
		// already-typed error (e.g. *ModuleRestartedError) inside another.
		return err
	}
	defer func() { _ = c.sess.LeaveConfig(ctx) }()
	return fn(ctx)
}

// GetParameters reads the device's persisted gate and timing configuration.
func (c *Client) GetParameters(ctx context.Context) (Parameters, error) {
	var out Parameters
	err := c.Configure(ctx, func(ctx context.Context) error {
		reply, err := c.sess.Issue(ctx, protocol.ParametersRead, nil)
		if err != nil {
			return err
		}
		parsed, err := protocol.ParseParametersReadReply(reply.Data)
		if err != nil {
			return err
		}
		out = parametersFromReply(parsed)
		return nil
	})
	return out, translateErr("GetParameters", err)
}

// SetParameters writes the device's motion/standstill gate range and
// no-one-idle duration. Both gate values must fall within the device's
// fixed 0..protocol.MaxGateIndex range; out-of-range values are rejected
// locally with a CommandParamError before anything is written to the wire.
func (c *Client) SetParameters(ctx context.Context, motionMaxGate, standstillMaxGate uint32, noOneIdleDuration uint32) error {
	if err := validateMaxGate("motionMaxGate", motionMaxGate); err != nil {
		return &CommandParamError{Op: "SetParameters", Err: err}
	}
	if err := validateMaxGate("standstillMaxGate", standstillMaxGate); err != nil {
		return &CommandParamError{Op: "SetParameters", Err: err}
	}
	if noOneIdleDuration > 0xFFFF {
		return &CommandParamError{Op: "SetParameters", Err: fmt.Errorf("noOneIdleDuration %d exceeds the device's 16-bit range", noOneIdleDuration)}
	}

	err := c.Configure(ctx, func(ctx context.Context) error {
		args := protocol.BuildSetParametersArgs(motionMaxGate, standstillMaxGate, noOneIdleDuration)
		_, err := c.sess.Issue(ctx, protocol.ParametersWrite, args)
		return err
	})
	return translateErr("SetParameters", err)
}

// SetGateSensitivity sets motion/standstill sensitivity for one gate, or
// every gate when gate is protocol.GateSensitivityAllGates. gate,
// motionSensitivity, and standstillSensitivity are range-checked locally
// before anything is written to the wire.
func (c *Client) SetGateSensitivity(ctx context.Context, gate, motionSensitivity, standstillSensitivity uint32) error {
	if gate != protocol.GateSensitivityAllGates && gate > protocol.MaxGateIndex {
		return &CommandParamError{Op: "SetGateSensitivity", Err: fmt.Errorf("gate %d exceeds the device's maximum gate %d (or use protocol.GateSensitivityAllGates)", gate, protocol.MaxGateIndex)}
	}
	if err := validateSensitivity("motionSensitivity", motionSensitivity); err != nil {
		return &CommandParamError{Op: "SetGateSensitivity", Err: err}
	}
	if err := validateSensitivity("standstillSensitivity", standstillSensitivity); err != nil {
		return &CommandParamError{Op: "SetGateSensitivity", Err: err}
	}

	err := c.Configure(ctx, func(ctx context.Context) error {
		args := protocol.BuildGateSensitivityArgs(gate, motionSensitivity, standstillSensitivity)
		_, err := c.sess.Issue(ctx, protocol.GateSensitivitySet, args)
		return err
	})
	return translateErr("SetGateSensitivity", err)
}

func validateMaxGate(name string, gate uint32) error {
	if gate > protocol.MaxGateIndex {
		return fmt.Errorf("%s %d exceeds the device's maximum gate %d", name, gate, protocol.MaxGateIndex)
	}
	return nil
}

func validateSensitivity(name string, v uint32) error {
	if v > protocol.MaxSensitivity {
		return fmt.Errorf("%s %d exceeds the maximum sensitivity %d", name, v, protocol.MaxSensitivity)
	}
	return nil
}

// SetEngineeringMode turns per-gate engineering reports on or off.
func (c *Client) SetEngineeringMode(ctx context.Context, enabled bool) error {
	code := protocol.EngineeringDisable
	if enabled {
		code = protocol.EngineeringEnable
	}
	err := c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, code, nil)
		return err
	})
	return translateErr("SetEngineeringMode", err)
}

// GetFirmwareVersion reads the device's firmware identification.
func (c *Client) GetFirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	var out FirmwareVersion
	err := c.Configure(ctx, func(ctx context.Context) error {
		reply, err := c.sess.Issue(ctx, protocol.FirmwareVersionCmd, nil)
		if err != nil {
			return err
		}
		parsed, err := protocol.ParseFirmwareVersionReply(reply.Data)
		if err != nil {
			return err
		}
		out = FirmwareVersion(parsed)
		return nil
	})
	return out, translateErr("GetFirmwareVersion", err)
}

// SetBaudRate changes the device's UART baud rate. The change only takes
// effect after RestartModule. rate must be one of the device's fixed
// speeds (protocol.BaudRateIndexFor).
func (c *Client) SetBaudRate(ctx context.Context, rate int) error {
	index, ok := protocol.BaudRateIndexFor(rate)
	if !ok {
		return &CommandParamError{Op: "SetBaudRate", Err: fmt.Errorf("unsupported baud rate %d", rate)}
	}
	err := c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, protocol.BaudRateSet, protocol.BuildSetBaudRateArgs(index))
		return err
	})
	return translateErr("SetBaudRate", err)
}

// ResetToFactory restores the device's factory-default configuration. The
// change only takes effect after RestartModule.
func (c *Client) ResetToFactory(ctx context.Context) error {
	err := c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, protocol.FactoryReset, nil)
		return err
	})
	return translateErr("ResetToFactory", err)
}

// RestartModule reboots the device. closeConfigContext mirrors upstream's
// keyword argument of the same name: when true, the client drops its own
// configuration-mode bookkeeping immediately rather than waiting for a
// LeaveConfig ack the rebooting device will never send. RestartModule itself
// returns nil once the reboot is acked; the device then drops the
// connection, so the first operation issued afterward fails with
// ModuleRestartedError and every one after that with ConnectionError.
func (c *Client) RestartModule(ctx context.Context, closeConfigContext bool) error {
	enteredHere := c.sess.State() != session.StateConfiguring
	if enteredHere {
		if _, err := c.sess.EnterConfig(ctx); err != nil {
			return translateErr("RestartModule", err)
		}
	}

	_, err := c.sess.Issue(ctx, protocol.ModuleRestart, nil)
	if err == nil {
		// The device now reboots and drops the connection instead of acking
		// a LeaveConfig; tell the session so its reader goroutine treats
		// that drop as expected and the next operation surfaces
		// ModuleRestartedError instead of a generic ConnectionError.
		c.sess.NoteRestart()
	}

	// The device reboots instead of acking a LeaveConfig, so the session's
	// configuration-mode bookkeeping is torn down locally rather than by
	// sending ConfigDisable over the wire.
	if closeConfigContext || enteredHere {
		c.sess.ForceLeaveConfig()
	}

	return translateErr("RestartModule", err)
}

// SetBluetoothMode enables or disables the device's Bluetooth radio.
func (c *Client) SetBluetoothMode(ctx context.Context, enabled bool) error {
	err := c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, protocol.BluetoothSet, protocol.BuildSetBluetoothArgs(enabled))
		return err
	})
	return translateErr("SetBluetoothMode", err)
}

// GetBluetoothAddress reads the device's Bluetooth MAC address.
func (c *Client) GetBluetoothAddress(ctx context.Context) ([6]byte, error) {
	var mac [6]byte
	err := c.Configure(ctx, func(ctx context.Context) error {
		reply, err := c.sess.Issue(ctx, protocol.BluetoothMACGet, nil)
		if err != nil {
			return err
		}
		mac, err = protocol.ParseBluetoothMACReply(reply.Data)
		return err
	})
	return mac, translateErr("GetBluetoothAddress", err)
}

// SetBluetoothPassword sets the password required to pair with the device
// over Bluetooth. password must be exactly protocol.BluetoothPasswordLen
// ASCII characters; this is validated locally before anything is written to
// the wire.
func (c *Client) SetBluetoothPassword(ctx context.Context, password string) error {
	args, err := protocol.BuildBluetoothPasswordArgs(password)
	if err != nil {
		return &CommandParamError{Op: "SetBluetoothPassword", Err: err}
	}

	err = c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, protocol.BluetoothPasswordSet, args)
		return err
	})
	return translateErr("SetBluetoothPassword", err)
}

// GetDistanceResolution reads the per-gate distance resolution. Upstream
// documents a quirk where this getter can return a stale value until the
// device has been restarted after a SetDistanceResolution call; that
// behaviour is passed through here unmodified.
func (c *Client) GetDistanceResolution(ctx context.Context) (protocol.ResolutionIndex, error) {
	var idx protocol.ResolutionIndex
	err := c.Configure(ctx, func(ctx context.Context) error {
		reply, err := c.sess.Issue(ctx, protocol.DistanceResolutionGet, nil)
		if err != nil {
			return err
		}
		idx, err = protocol.ParseDistanceResolutionReply(reply.Data)
		return err
	})
	return idx, translateErr("GetDistanceResolution", err)
}

// SetDistanceResolution sets the per-gate distance resolution. The change
// only takes effect after RestartModule.
func (c *Client) SetDistanceResolution(ctx context.Context, index protocol.ResolutionIndex) error {
	err := c.Configure(ctx, func(ctx context.Context) error {
		_, err := c.sess.Issue(ctx, protocol.DistanceResolutionSet, protocol.BuildSetDistanceResolutionArgs(index))
		return err
	})
	return translateErr("SetDistanceResolution", err)
}

// GetLightControl reads the device's OUT-pin photo-sensitivity control
// (firmware 2.4+).
func (c *Client) GetLightControl(ctx context.Context) (LightControl, error) {
	var out LightControl
	err := c.Configure(ctx, func(ctx context.Context) error {
		reply, err := c.sess.Issue(ctx, protocol.AuxiliaryControlGet, nil)
		if err != nil {
			return err
		}
		parsed, err := protocol.ParseAuxiliaryControlReply(reply.Data)
		if err != nil {
			return err
		}
		out = LightControl(parsed)
		return nil
	})
	return out, translateErr("GetLightControl", err)
}

// SetLightControl sets the device's OUT-pin photo-sensitivity control
// (firmware 2.4+).
func (c *Client) SetLightControl(ctx context.Context, lc LightControl) error {
	err := c.Configure(ctx, func(ctx context.Context) error {
		args := protocol.BuildAuxiliaryControlArgs(lc.Control, lc.Threshold, lc.Default)
		_, err := c.sess.Issue(ctx, protocol.AuxiliaryControlSet, args)
		return err
	})
	return translateErr("SetLightControl", err)
}

// GetLastReport returns the most recently received presence report. ok is
// false if no report has arrived yet.
func (c *Client) GetLastReport() (Report, bool) {
	r, ok := c.sess.Distributor().Latest()
	return toReport(r), ok
}

// GetNextReport blocks until the next presence report arrives or ctx is
// done.
func (c *Client) GetNextReport(ctx context.Context) (Report, error) {
	dist := c.sess.Distributor()
	gate := dist.NextGate()
	select {
	case <-gate:
		r, _ := dist.Latest()
		return toReport(r), nil
	case <-ctx.Done():
		return Report{}, &CommandContextError{Op: "GetNextReport", Err: ctx.Err()}
	}
}

// GetReports returns a channel of presence reports and an unsubscribe
// function the caller must call when done reading. Reports pass through a
// subscriber queue sized by the client's WithReportQueueSize option and are
// forwarded into the returned channel, which has the same capacity. When the
// subscriber queue is full its oldest queued report is dropped rather than
// blocking the reader goroutine; reports already in the returned channel
// are never dropped.
func (c *Client) GetReports() (<-chan Report, func()) {
	dist := c.sess.Distributor()
	raw := dist.Subscribe(c.sess.ReportQueueSize())
	out := make(chan Report, cap(raw))
	go func() {
		defer close(out)
		for r := range raw {
			out <- toReport(r)
		}
	}()
	return out, func() { dist.Unsubscribe(raw) }
}

func toReport(r report.Report) Report {
	return Report{Type: r.Type, Basic: r.Basic, Engineering: r.Engineering}
}

func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, session.ErrModuleRestarted):
		return &ModuleRestartedError{Op: op}
	case errors.Is(err, session.ErrNotOpen), errors.Is(err, session.ErrAlreadyOpen), errors.Is(err, session.ErrClosed):
		return &ConnectionError{Op: op, Err: err}
	case errors.Is(err, session.ErrAlreadyConfiguring), errors.Is(err, session.ErrNotConfiguring):
		return &CommandContextError{Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		// The command's timeout elapsed waiting for an ack: the device never
		// replied, not that the caller cancelled the call.
		return &CommandReplyError{Op: op, Err: err}
	case errors.Is(err, context.Canceled):
		return &CommandContextError{Op: op, Err: err}
	}

	var writeErr *session.WriteError
	if errors.As(err, &writeErr) {
		return &ConnectionError{Op: op, Err: err}
	}

	var statusErr *session.StatusError
	if errors.As(err, &statusErr) {
		return &CommandStatusError{Code: statusErr.Code, Status: statusErr.Status}
	}

	return &CommandReplyError{Op: op, Err: err}
}
