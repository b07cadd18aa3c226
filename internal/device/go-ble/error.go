package goble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/senspoll/internal/central"
)

// Adapter errors
var (
	ErrBluetoothOff     = errors.New("bluetooth is turned off")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrUnsupported      = errors.New("platform has no supported BLE device")
	ErrServiceNotFound  = errors.New("service not found")
	ErrScanStoppedLate  = errors.New("scan stopped after the stop timeout")
)

// NormalizeError maps known go-ble error strings onto the package sentinels,
// keeping the original error text.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case msg == "central manager has invalid state: have=4 want=5: is Bluetooth turned on?":
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "device not connected"), containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "command disallowed"), containsIgnoreCase(msg, "scan already"):
		return fmt.Errorf("%w: %v", central.ErrScanBusy, err)
	default:
		return err
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
