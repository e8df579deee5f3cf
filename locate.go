package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceIdentity is the USB vendor/product pair a device enumerates with
type DeviceIdentity struct {
	VendorID  uint16
	ProductID uint16
}

// String formats the identity as lsusb does, e.g. "20b1:4000"
func (d DeviceIdentity) String() string {
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}

// ParseIdentity parses "VID:PID" with hexadecimal fields, with or without 0x prefixes
func ParseIdentity(s string) (DeviceIdentity, error) {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return DeviceIdentity{}, fmt.Errorf("%w: %q is not VID:PID", ErrInvalidIdentity, s)
	}
	v, err := parseUSBID(vid)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("%w: vendor id %q", ErrInvalidIdentity, vid)
	}
	p, err := parseUSBID(pid)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("%w: product id %q", ErrInvalidIdentity, pid)
	}
	return DeviceIdentity{VendorID: v, ProductID: p}, nil
}

// parseUSBID parses a hexadecimal 16-bit USB id as found in sysfs and enumerators
func parseUSBID(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// PortCandidate is an enumerated serial device that may be opened for a test
type PortCandidate struct {
	Path            string
	VendorID        uint16
	ProductID       uint16
	SerialNumber    string
	InterfaceNumber string
	Description     string
}

// Identity returns the candidate's vendor/product pair
func (c PortCandidate) Identity() DeviceIdentity {
	return DeviceIdentity{VendorID: c.VendorID, ProductID: c.ProductID}
}

// Enumerator lists the serial devices visible to the host. Implementations
// must not open devices.
type Enumerator interface {
	Enumerate() ([]PortCandidate, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface
type EnumeratorFunc func() ([]PortCandidate, error)

func (f EnumeratorFunc) Enumerate() ([]PortCandidate, error) {
	return f()
}

// SysfsEnumerator enumerates ports from /dev and reads USB ids from sysfs.
// Ports without USB metadata are reported with zero ids.
type SysfsEnumerator struct{}

func (SysfsEnumerator) Enumerate() ([]PortCandidate, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}

	candidates := make([]PortCandidate, 0, len(ports))
	for _, path := range ports {
		info, err := GetPortInfo(path)
		if err != nil {
			// Port vanished between listing and inspection
			continue
		}
		candidates = append(candidates, candidateFromInfo(info))
	}
	return candidates, nil
}

func candidateFromInfo(info *PortInfo) PortCandidate {
	c := PortCandidate{
		Path:            info.Path,
		SerialNumber:    info.SerialNumber,
		InterfaceNumber: info.InterfaceNumber,
		Description:     info.Description,
	}
	if info.IsUSB() {
		vid, verr := parseUSBID(info.VendorID)
		pid, perr := parseUSBID(info.ProductID)
		if verr == nil && perr == nil {
			c.VendorID, c.ProductID = vid, pid
		}
	}
	return c
}

// Filter returns the candidates matching id, preserving enumeration order
func Filter(candidates []PortCandidate, id DeviceIdentity) []PortCandidate {
	var matched []PortCandidate
	for _, c := range candidates {
		if c.Identity() == id {
			matched = append(matched, c)
		}
	}
	return matched
}

// Locate enumerates serial devices and returns the first minimum ports
// matching id, in enumeration order. Fewer matches than minimum yields a
// *DeviceNotFoundError. Extra matches are not an error.
//
// Enumeration order depends on the enumerator: SysfsEnumerator sorts by path,
// BugstEnumerator keeps the operating system's order. Both are stable within a run.
func Locate(e Enumerator, id DeviceIdentity, minimum int) ([]PortCandidate, error) {
	if minimum < 1 {
		return nil, fmt.Errorf("%w: minimum port count %d", ErrInvalidConfig, minimum)
	}

	all, err := e.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	matched := Filter(all, id)
	if len(matched) < minimum {
		return nil, &DeviceNotFoundError{Identity: id, Found: len(matched), Required: minimum}
	}
	return matched[:minimum], nil
}
