package serial

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPortNotFound     = errors.New("serial port path does not exist")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrInvalidIdentity  = errors.New("invalid USB identity")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrReadTimeout      = errors.New("read operation timed out")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)

// DeviceNotFoundError reports that fewer ports than required matched an identity.
// It matches ErrDeviceNotFound with errors.Is. Opening or inspecting a path
// that does not exist reports ErrPortNotFound instead.
type DeviceNotFoundError struct {
	Identity DeviceIdentity
	Found    int
	Required int
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("expected %d serial ports for %s, found %d", e.Required, e.Identity, e.Found)
}

func (e *DeviceNotFoundError) Is(target error) bool {
	return target == ErrDeviceNotFound
}
