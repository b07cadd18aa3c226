package main

import (
	"errors"
	"strings"

	"github.com/srg/senspoll/internal/central"
	goble "github.com/srg/senspoll/internal/device/go-ble"
	"github.com/srg/senspoll/pkg/config"
)

// Command-level errors
var (
	ErrInvalidPayload = errors.New("invalid payload")
)

// FormatUserError turns an error chain into a one-line message for the terminal.
// Known conditions get a hint; anything else is printed as is.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, goble.ErrBluetoothOff):
		return "Bluetooth is turned off. Turn it on and try again."
	case errors.Is(err, goble.ErrUnsupported):
		return "No supported Bluetooth adapter on this platform."
	case errors.Is(err, config.ErrInvalidConfig):
		// Validation joins one error per line
		lines := strings.Split(err.Error(), "\n")
		return "configuration is invalid:\n  " + strings.Join(lines, "\n  ")
	case errors.Is(err, central.ErrNoPeers):
		return "no peers configured; add peers to the configuration file"
	}

	var derr *central.DecodeError
	if errors.As(err, &derr) {
		return derr.Error()
	}
	return err.Error()
}
