package central

import (
	"errors"
	"fmt"
)

// Command and event errors
var (
	// ErrScanBusy indicates the radio refused to change scan state.
	ErrScanBusy = errors.New("scan busy")

	// ErrConnectInProgress indicates a connect was requested while another attempt is pending.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrStaleHandle marks an event for a handle whose session is gone.
	ErrStaleHandle = errors.New("stale connection handle")

	// ErrUnknownHandle indicates an event or command referenced a connection handle with no live session.
	ErrUnknownHandle = errors.New("unknown connection handle")

	// ErrUnknownValueHandle indicates a value handle that was not resolved during discovery.
	ErrUnknownValueHandle = errors.New("unknown value handle")

	// ErrReadTimeout marks a read abandoned after the configured read timeout.
	ErrReadTimeout = errors.New("read timeout")
)

// Configuration errors
var (
	ErrNoPeers       = errors.New("no peers configured")
	ErrDuplicateRole = errors.New("duplicate peer role")
	ErrNilStack      = errors.New("stack is nil")
)

// DecodeError reports a payload too short for its characteristic kind
type DecodeError struct {
	Kind Kind
	Want int
	Got  int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: want %d bytes, got %d", e.Kind, e.Want, e.Got)
}
