package transport

import (
	"fmt"
	"sync"

	serial "go.bug.st/serial"
)

// SerialPort implements Port over a real UART using go.bug.st/serial.
type SerialPort struct {
	mu   sync.Mutex
	port serial.Port
	dev  string
	baud int
}

// OpenSerial opens dev at baud and returns a ready-to-use SerialPort.
func OpenSerial(dev string, baud int) (*SerialPort, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", dev, err)
	}
	return &SerialPort{port: p, dev: dev, baud: baud}, nil
}

// Read implements io.Reader.
func (s *SerialPort) Read(p []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, fmt.Errorf("transport: serial %s is closed", s.dev)
	}
	return port.Read(p)
}

// Write implements io.Writer.
func (s *SerialPort) Write(p []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, fmt.Errorf("transport: serial %s is closed", s.dev)
	}
	return port.Write(p)
}

// Close implements io.Closer. It is idempotent.
func (s *SerialPort) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("transport: close serial %s: %w", s.dev, err)
	}
	return nil
}
