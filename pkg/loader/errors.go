package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates no monitor has been detected on the stream.
	ErrNotConnected = errors.New("monitor not connected")
	// ErrTimeout indicates the monitor did not answer in time.
	ErrTimeout = errors.New("monitor response timeout")
	// ErrBadInfo indicates an info response inconsistent with the banner.
	ErrBadInfo = errors.New("bad monitor info")
	// ErrInvalidRange indicates an end address below the start address.
	ErrInvalidRange = errors.New("invalid address range")
	// ErrVerifyFailed indicates device memory differs from the expected data.
	ErrVerifyFailed = errors.New("verify failed")
)

// DeviceError is a diagnostic reported by the monitor.
type DeviceError struct {
	Message string
}

// Error implements error.
func (e *DeviceError) Error() string {
	return "monitor error: " + e.Message
}

// CountMismatchError indicates a status count different from the request.
type CountMismatchError struct {
	Code     byte
	Expected uint32
	Actual   uint32
}

// Error implements error.
func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%c: expected %d bytes, monitor reported %d", e.Code, e.Expected, e.Actual)
}

// UnexpectedLineError indicates a response line that does not fit the
// command.
type UnexpectedLineError struct {
	Code byte
	Line string
}

// Error implements error.
func (e *UnexpectedLineError) Error() string {
	return fmt.Sprintf("%c: unexpected line %q", e.Code, e.Line)
}

// AddressMismatchError indicates a dump row at an unexpected address.
type AddressMismatchError struct {
	Expected uint32
	Actual   uint32
}

// Error implements error.
func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("dump row at %08x, expected %08x", e.Actual, e.Expected)
}
