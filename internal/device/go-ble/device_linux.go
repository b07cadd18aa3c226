//go:build linux

package goble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"golang.org/x/sys/unix"
)

// newPlatformDevice opens the default HCI adapter. Raw HCI sockets need
// root or CAP_NET_ADMIN, so a failure as a regular user gets a hint.
func newPlatformDevice() (ble.Device, error) {
	dev, err := linux.NewDevice()
	if err != nil {
		if unix.Geteuid() != 0 {
			return nil, fmt.Errorf("open HCI device (run as root or grant CAP_NET_ADMIN): %w", err)
		}
		return nil, err
	}
	return dev, nil
}
