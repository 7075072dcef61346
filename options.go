package ld2410

import (
	"time"

	"github.com/hilink/ld2410/internal/report"
	"github.com/hilink/ld2410/internal/util"
)

// config holds the Client configuration assembled from ClientOption values.
type config struct {
	baudRate        int
	commandTimeout  time.Duration
	reportQueueSize int
	logger          util.Logger
}

func defaultConfig() config {
	return config{
		baudRate:        256000,
		commandTimeout:  2 * time.Second,
		reportQueueSize: report.DefaultQueueSize,
	}
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*config)

// WithBaudRate sets the serial baud rate used to open the device. The
// device's default is 256000; only the rates the device itself supports
// (see protocol.BaudRateIndexFor) are meaningful.
//
// Example:
//
//	client, err := ld2410.Open(ctx, "/dev/ttyUSB0", ld2410.WithBaudRate(115200))
func WithBaudRate(baud int) ClientOption {
	return func(c *config) {
		c.baudRate = baud
	}
}

// WithCommandTimeout sets how long Issue-backed operations wait for an ack
// before giving up. The default is 2 seconds.
func WithCommandTimeout(timeout time.Duration) ClientOption {
	return func(c *config) {
		c.commandTimeout = timeout
	}
}

// WithReportQueueSize sets the buffer depth for report subscriber channels,
// including the one backing GetReports. The default is
// report.DefaultQueueSize.
func WithReportQueueSize(size int) ClientOption {
	return func(c *config) {
		if size > 0 {
			c.reportQueueSize = size
		}
	}
}

// WithLogger sets the logger the Client uses for its own diagnostics: acks
// that don't match the pending command, and frame-stream resynchronisation
// warnings. By default logging is disabled.
//
// Example:
//
//	client, err := ld2410.Open(ctx, "/dev/ttyUSB0", ld2410.WithLogger(log.Default()))
func WithLogger(logger util.Logger) ClientOption {
	return func(c *config) {
		c.logger = logger
	}
}
