package serial

import (
	"errors"
	"strings"
	"testing"

	"go.bug.st/serial/enumerator"
)

var xmos = DeviceIdentity{VendorID: 0x20b1, ProductID: 0x4000}

func fixedEnumerator(candidates ...PortCandidate) Enumerator {
	return EnumeratorFunc(func() ([]PortCandidate, error) {
		return candidates, nil
	})
}

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		input   string
		want    DeviceIdentity
		wantErr bool
	}{
		{"20b1:4000", xmos, false},
		{"0x20B1:0x4000", xmos, false},
		{" 0403:6010 ", DeviceIdentity{VendorID: 0x0403, ProductID: 0x6010}, false},
		{"20b1", DeviceIdentity{}, true},
		{"20b1:", DeviceIdentity{}, true},
		{"zzzz:4000", DeviceIdentity{}, true},
		{"20b1:10000", DeviceIdentity{}, true},
	}

	for _, tt := range tests {
		got, err := ParseIdentity(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIdentity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("ParseIdentity(%q) error = %v, expected ErrInvalidIdentity", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseIdentity(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func TestDeviceIdentityString(t *testing.T) {
	if got := xmos.String(); got != "20b1:4000" {
		t.Errorf("String() = %q, expected 20b1:4000", got)
	}
	if got := (DeviceIdentity{VendorID: 0x403, ProductID: 0x1}).String(); got != "0403:0001" {
		t.Errorf("String() = %q, expected 0403:0001", got)
	}
}

func TestLocate(t *testing.T) {
	enum := fixedEnumerator(
		PortCandidate{Path: "/dev/ttyS0"},
		PortCandidate{Path: "/dev/ttyACM0", VendorID: 0x20b1, ProductID: 0x4000},
		PortCandidate{Path: "/dev/ttyUSB0", VendorID: 0x0403, ProductID: 0x6010},
		PortCandidate{Path: "/dev/ttyACM1", VendorID: 0x20b1, ProductID: 0x4000},
		PortCandidate{Path: "/dev/ttyACM2", VendorID: 0x20b1, ProductID: 0x4000},
	)

	tests := []struct {
		name    string
		minimum int
		want    []string
	}{
		{"exactly two", 2, []string{"/dev/ttyACM0", "/dev/ttyACM1"}},
		{"all three", 3, []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyACM2"}},
		{"one", 1, []string{"/dev/ttyACM0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports, err := Locate(enum, xmos, tt.minimum)
			if err != nil {
				t.Fatalf("Locate failed: %v", err)
			}
			if len(ports) != len(tt.want) {
				t.Fatalf("Locate returned %d ports, expected %d", len(ports), len(tt.want))
			}
			for i, p := range ports {
				if p.Path != tt.want[i] {
					t.Errorf("ports[%d] = %s, expected %s", i, p.Path, tt.want[i])
				}
				if p.Identity() != xmos {
					t.Errorf("ports[%d] identity = %s, expected %s", i, p.Identity(), xmos)
				}
			}
		})
	}
}

func TestLocateNotEnoughPorts(t *testing.T) {
	tests := []struct {
		name       string
		candidates []PortCandidate
		found      int
	}{
		{"none", nil, 0},
		{"other devices only", []PortCandidate{{Path: "/dev/ttyUSB0", VendorID: 0x0403, ProductID: 0x6010}}, 0},
		{"single interface", []PortCandidate{{Path: "/dev/ttyACM0", VendorID: 0x20b1, ProductID: 0x4000}}, 1},
		{"product id differs", []PortCandidate{
			{Path: "/dev/ttyACM0", VendorID: 0x20b1, ProductID: 0x4000},
			{Path: "/dev/ttyACM1", VendorID: 0x20b1, ProductID: 0x4001},
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate(fixedEnumerator(tt.candidates...), xmos, 2)
			if !errors.Is(err, ErrDeviceNotFound) {
				t.Fatalf("Expected ErrDeviceNotFound, got %v", err)
			}

			var notFound *DeviceNotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("Expected *DeviceNotFoundError, got %T", err)
			}
			if notFound.Found != tt.found || notFound.Required != 2 || notFound.Identity != xmos {
				t.Errorf("DeviceNotFoundError = %+v, expected found=%d required=2", notFound, tt.found)
			}
			if !strings.Contains(err.Error(), "20b1:4000") {
				t.Errorf("Expected identity in message, got %q", err.Error())
			}
		})
	}
}

func TestLocateInvalidMinimum(t *testing.T) {
	_, err := Locate(fixedEnumerator(), xmos, 0)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLocateEnumerationError(t *testing.T) {
	boom := errors.New("permission denied on /dev")
	enum := EnumeratorFunc(func() ([]PortCandidate, error) { return nil, boom })

	_, err := Locate(enum, xmos, 2)
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped enumeration error, got %v", err)
	}
	if errors.Is(err, ErrDeviceNotFound) {
		t.Error("Enumeration failure must not be reported as device not found")
	}
}

func TestCandidateFromInfo(t *testing.T) {
	c := candidateFromInfo(&PortInfo{
		Path:            "/dev/ttyACM1",
		Description:     "USB CDC/ACM Device",
		VendorID:        "20b1",
		ProductID:       "4000",
		SerialNumber:    "XC0001",
		InterfaceNumber: "02",
	})
	if c.Identity() != xmos {
		t.Errorf("Identity() = %s, expected %s", c.Identity(), xmos)
	}
	if c.Path != "/dev/ttyACM1" || c.SerialNumber != "XC0001" || c.InterfaceNumber != "02" {
		t.Errorf("unexpected candidate %+v", c)
	}

	plain := candidateFromInfo(&PortInfo{Path: "/dev/ttyS0"})
	if plain.VendorID != 0 || plain.ProductID != 0 {
		t.Errorf("non-USB port got identity %s", plain.Identity())
	}
}

func TestBugstEnumerator(t *testing.T) {
	e := BugstEnumerator{list: func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "20B1", PID: "4000", SerialNumber: "XC0001", Product: "XMOS CDC"},
			{Name: "/dev/ttyACM1", IsUSB: true, VID: "20b1", PID: "4000", SerialNumber: "XC0001"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "bogus", PID: "6010"},
		}, nil
	}}

	ports, err := Locate(e, xmos, 2)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ports[0].Path != "/dev/ttyACM0" || ports[1].Path != "/dev/ttyACM1" {
		t.Errorf("Locate returned %s, %s", ports[0].Path, ports[1].Path)
	}
	if ports[0].Description != "XMOS CDC" {
		t.Errorf("Description = %q, expected XMOS CDC", ports[0].Description)
	}

	all, err := e.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Enumerate returned %d ports, expected 4", len(all))
	}
	if all[3].VendorID != 0 {
		t.Errorf("unparseable VID should leave identity empty, got %s", all[3].Identity())
	}
}

func TestBugstEnumeratorError(t *testing.T) {
	boom := errors.New("enumeration failed")
	e := BugstEnumerator{list: func() ([]*enumerator.PortDetails, error) { return nil, boom }}

	if _, err := e.Enumerate(); !errors.Is(err, boom) {
		t.Errorf("Expected enumeration error, got %v", err)
	}
}
