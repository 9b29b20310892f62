// Package device provides line-oriented telemetry sources: a serial port
// connected to the fuel table MCU, and a mock that emulates its firmware.
package device

import "errors"

var (
	// ErrAlreadyConnected is returned by Connect on a connected device.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNotConnected is returned by operations that need an open device.
	ErrNotConnected = errors.New("not connected")
)

// Device defines the interface for telemetry sources (real or mocked).
//
// Lines delivers raw records without the terminating newline. The channel is
// closed once the device stops producing, either after Close or when the
// underlying stream ends.
type Device interface {
	Connect() error
	Close() error
	Lines() <-chan []byte
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
