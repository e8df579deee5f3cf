package serial

import (
	"errors"
	"testing"

	bugst "go.bug.st/serial"
)

// fakeBugst implements the go.bug.st/serial Port methods bugstPort uses
type fakeBugst struct {
	bugst.Port
	reads  [][]byte
	closed int
}

func (f *fakeBugst) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	n := copy(p, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakeBugst) Write(p []byte) (int, error) { return len(p), nil }

func (f *fakeBugst) ResetInputBuffer() error {
	f.reads = nil
	return nil
}

func (f *fakeBugst) Close() error {
	f.closed++
	return nil
}

func TestBugstPortReadTimeout(t *testing.T) {
	fake := &fakeBugst{reads: [][]byte{[]byte("ok")}}
	p := &bugstPort{port: fake, path: "/dev/ttyACM0", config: DefaultConfig()}

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil || string(buf[:n]) != "ok" {
		t.Fatalf("Read = %q, %v; expected \"ok\"", buf[:n], err)
	}

	if _, err := p.Read(buf); err != ErrReadTimeout {
		t.Errorf("Expected ErrReadTimeout on empty read, got %v", err)
	}
}

func TestBugstPortBlockingRead(t *testing.T) {
	config := DefaultConfig()
	config.ReadTimeout = 0
	p := &bugstPort{port: &fakeBugst{}, config: config}

	n, err := p.Read(make([]byte, 4))
	if n != 0 || err != nil {
		t.Errorf("Read without timeout = %d, %v; expected 0, nil", n, err)
	}
}

func TestBugstPortClose(t *testing.T) {
	fake := &fakeBugst{}
	p := &bugstPort{port: fake, path: "/dev/ttyACM0", config: DefaultConfig()}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Close(); err != ErrPortClosed {
		t.Errorf("Second Close: expected ErrPortClosed, got %v", err)
	}
	if fake.closed != 1 {
		t.Errorf("underlying port closed %d times, expected 1", fake.closed)
	}
	if _, err := p.Write([]byte("x")); err != ErrPortClosed {
		t.Errorf("Write after Close: expected ErrPortClosed, got %v", err)
	}
	if _, err := p.Read(make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("Read after Close: expected ErrPortClosed, got %v", err)
	}
	if err := p.FlushInput(); err != ErrPortClosed {
		t.Errorf("FlushInput after Close: expected ErrPortClosed, got %v", err)
	}
	if p.String() != "/dev/ttyACM0" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestBugstPortFlushInput(t *testing.T) {
	fake := &fakeBugst{reads: [][]byte{[]byte("stale")}}
	p := &bugstPort{port: fake, config: DefaultConfig()}

	if err := p.FlushInput(); err != nil {
		t.Fatalf("FlushInput failed: %v", err)
	}
	if _, err := p.Read(make([]byte, 8)); err != ErrReadTimeout {
		t.Errorf("Expected flushed input to read as timeout, got %v", err)
	}
}

func TestOpenBugstNonExistentDevice(t *testing.T) {
	_, err := OpenBugst("/dev/nonexistent")
	if err == nil {
		t.Fatal("Expected error when opening non-existent device")
	}
	if !errors.Is(err, ErrPortNotFound) {
		t.Errorf("Expected ErrPortNotFound, got %v", err)
	}
	if errors.Is(err, ErrDeviceNotFound) {
		t.Error("A missing path must not be reported as a missing device identity")
	}
}
