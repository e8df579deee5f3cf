package serial

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// resetSettle is how long a reset device gets to re-enumerate
var resetSettle = 2 * time.Second

// runUSBReset executes the usbreset utility, replaced in tests
var runUSBReset = func(usbPath string) ([]byte, error) {
	if !IsUSBResetAvailable() {
		return nil, ErrUSBResetNotAvailable
	}
	return exec.Command("usbreset", usbPath).CombinedOutput()
}

// portInfo looks up sysfs metadata for ResetMatching, replaced in tests
var portInfo = GetPortInfo

// ResetUSBDevice performs a USB-level reset of the device
// This can recover a target that stopped answering on its CDC interfaces
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns:
// - nil if reset successful
// - ErrUSBResetNotAvailable if usbreset utility not found
// - ErrUSBInfoNotAvailable if device is not USB or metadata unavailable
// - error if reset fails
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}
	return resetInfo(info)
}

func resetInfo(info *PortInfo) error {
	usbPath, err := usbDevicePath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return err
	}

	if output, err := runUSBReset(usbPath); err != nil {
		if errors.Is(err, ErrUSBResetNotAvailable) {
			return err
		}
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	time.Sleep(resetSettle)
	return nil
}

// usbDevicePath formats bus and device numbers as usbreset expects them (BBB/DDD)
func usbDevicePath(bus, device string) (string, error) {
	b, berr := strconv.Atoi(bus)
	d, derr := strconv.Atoi(device)
	if berr != nil || derr != nil {
		return "", ErrUSBInfoNotAvailable
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}

// ResetUSBDeviceBySerial resets a USB device by its serial number
// Useful when device paths change after reboot or when multiple devices are connected
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// ResetMatching resets every USB device exposing a port with the given
// identity. A composite device with several CDC interfaces is reset once.
// It returns the number of devices reset. Whatever enumerator finds the ports,
// bus and device numbers come from Linux sysfs; a port without them yields
// ErrUSBInfoNotAvailable before any device is reset.
func ResetMatching(e Enumerator, id DeviceIdentity) (int, error) {
	all, err := e.Enumerate()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	matched := Filter(all, id)
	if len(matched) == 0 {
		return 0, &DeviceNotFoundError{Identity: id, Found: 0, Required: 1}
	}

	type target struct {
		path string
		info *PortInfo
	}
	var targets []target
	seen := make(map[string]bool)
	for _, c := range matched {
		info, err := portInfo(c.Path)
		if err != nil {
			return 0, fmt.Errorf("%w: %s (USB reset reads bus/device numbers from Linux sysfs): %w", ErrUSBInfoNotAvailable, c.Path, err)
		}
		if info.BusNumber == "" || info.DeviceNumber == "" {
			return 0, fmt.Errorf("%w: %s has no bus/device numbers in sysfs", ErrUSBInfoNotAvailable, c.Path)
		}
		key := info.BusNumber + "/" + info.DeviceNumber
		if seen[key] {
			continue
		}
		seen[key] = true
		targets = append(targets, target{path: c.Path, info: info})
	}

	for i, t := range targets {
		if err := resetInfo(t.info); err != nil {
			return i, fmt.Errorf("reset %s: %w", t.path, err)
		}
	}
	return len(targets), nil
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
