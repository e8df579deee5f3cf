package serial

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	bugst "go.bug.st/serial"
)

// bugstPort adapts a go.bug.st/serial port to the Port interface. It is the
// transport used on hosts without termios ioctls (macOS, Windows).
type bugstPort struct {
	mu     sync.Mutex
	port   bugst.Port
	path   string
	config Config
	closed bool
}

var _ Port = (*bugstPort)(nil)

// OpenBugst opens device through go.bug.st/serial with the same options as Open
func OpenBugst(device string, opts ...Option) (Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   bugstParity(config.Parity),
		StopBits: bugst.OneStopBit,
	}
	if config.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	p, err := bugst.Open(device, mode)
	if err != nil {
		var portErr *bugst.PortError
		if errors.As(err, &portErr) {
			switch portErr.Code() {
			case bugst.PortNotFound:
				return nil, ErrPortNotFound
			case bugst.PortBusy:
				return nil, fmt.Errorf("%w: %s", ErrDeviceInUse, device)
			case bugst.PermissionDenied:
				return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, device)
			}
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPortNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}

	if config.ReadTimeout > 0 {
		if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", device, err)
		}
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", device, err)
	}

	return &bugstPort{port: p, path: device, config: config}, nil
}

func bugstParity(p Parity) bugst.Parity {
	switch p {
	case ParityOdd:
		return bugst.OddParity
	case ParityEven:
		return bugst.EvenParity
	default:
		return bugst.NoParity
	}
}

func (b *bugstPort) String() string {
	return b.path
}

func (b *bugstPort) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrPortClosed
	}
	b.closed = true
	return b.port.Close()
}

func (b *bugstPort) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Read returns ErrReadTimeout where go.bug.st reports a timeout as (0, nil)
func (b *bugstPort) Read(buf []byte) (int, error) {
	if b.isClosed() {
		return 0, ErrPortClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}

	n, err := b.port.Read(buf)
	if err != nil {
		return n, err
	}
	if n == 0 && b.config.ReadTimeout > 0 {
		return 0, ErrReadTimeout
	}
	return n, nil
}

func (b *bugstPort) Write(data []byte) (int, error) {
	if b.isClosed() {
		return 0, ErrPortClosed
	}
	return b.port.Write(data)
}

func (b *bugstPort) FlushInput() error {
	if b.isClosed() {
		return ErrPortClosed
	}
	return b.port.ResetInputBuffer()
}
