package link

import (
	"errors"
	"fmt"
)

var (
	// ErrListenerClosed is returned by Accept after Close.
	ErrListenerClosed = errors.New("listener closed")
	// ErrNoDevice indicates a URL without the device to connect.
	ErrNoDevice = errors.New("device not specified")
)

// UnknownSchemeError indicates a URL scheme not supported in the context.
type UnknownSchemeError struct {
	Scheme string
	Op     string
}

// Error implements error.
func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("%s: unknown link scheme %q", e.Op, e.Scheme)
}
