package chatclient

import (
	"errors"
	"fmt"
)

// ErrChannelDown reports that the persistent channel gave up
// reconnecting. REST traffic keeps working; realtime features degrade.
var ErrChannelDown = errors.New("channel down")

// ErrExit is returned by the exit command so the loop can terminate.
var ErrExit = errors.New("exit")

// UsageError reports a command invoked with the wrong arguments.
// It never reaches the network.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// AuthError reports a missing or rejected credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

// TransportError reports a failed request/response call, carrying the
// server's message when one was present.
type TransportError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports a user-supplied reference (index or id) that
// resolves to nothing.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Ref
}
