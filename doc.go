// Package serial opens raw serial ports and locates USB CDC devices for
// hardware-in-the-loop tests.
//
// Ports are opened in raw mode, claimed exclusively and flushed, so a test
// never sees bytes left over from a previous run.
//
// # Basic Usage
//
// Open a port with the default configuration (115200 8N1, 2.5s read timeout):
//
//	port, err := serial.Open("/dev/ttyACM0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer)
//
// A read that sees no byte within the timeout returns ErrReadTimeout instead
// of (0, nil).
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyACM0",
//	    serial.WithBaudRate(115200),
//	    serial.WithReadTimeout(5*time.Second),
//	    serial.WithSyncWrite(),
//	)
//
// OpenBugst accepts the same options and opens the port through
// go.bug.st/serial instead of termios ioctls.
//
// # Locating a Device
//
// A USB CDC device with several interfaces shows up as several ports sharing
// one VID:PID. Locate returns the first ports matching an identity in
// enumeration order:
//
//	id, _ := serial.ParseIdentity("20b1:4000")
//	ports, err := serial.Locate(serial.SysfsEnumerator{}, id, 2)
//	if errors.Is(err, serial.ErrDeviceNotFound) {
//	    // target not plugged in or not enumerated yet
//	}
//
// SysfsEnumerator scans /dev and reads USB metadata from sysfs (Linux only).
// BugstEnumerator uses go.bug.st/serial/enumerator.
//
// # USB Device Management (Linux)
//
// Reset a target whose CDC interfaces stopped answering:
//
//	err := serial.ResetUSBDevice("/dev/ttyACM0")
//	n, err := serial.ResetMatching(serial.SysfsEnumerator{}, id)
//
// Requires the usbreset utility from usbutils and root permissions.
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - ReadTimeout: 2.5 seconds
//   - WriteMode: Buffered
package serial
