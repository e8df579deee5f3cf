package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	serial "github.com/allbin/serial-hil"
	"github.com/allbin/serial-hil/duplex"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		done, total int64
		want        string
	}{
		{0, 0, "0 B / 0 B"},
		{512, 1023, "512 B / 1023 B"},
		{1024, 4096, "1.0 KiB / 4.0 KiB"},
		{1536, 3 * 1024 * 1024, "1.5 KiB / 3.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.done, tt.total))
	}
}

func TestTransferModelProgress(t *testing.T) {
	m := NewTransferModel("duplex", "A", "B", nil)

	next, _ := m.Update(ProgressMsg{Phase: 1, Chunk: 1, Bytes: 2048, Total: 4096})
	m = next.(TransferModel)
	assert.True(t, m.started[0])
	assert.False(t, m.started[1])
	assert.InDelta(t, 0.5, fraction(m.phases[0]), 1e-9)

	next, _ = m.Update(ProgressMsg{Phase: 1, Bytes: 4096, Total: 4096, PhaseDone: true})
	m = next.(TransferModel)
	assert.Contains(t, m.View(), "done")

	next, cmd := m.Update(DoneMsg{})
	m = next.(TransferModel)
	assert.NotNil(t, cmd)
	assert.NoError(t, m.Err())
	assert.Contains(t, m.View(), "transfer complete")
}

func TestTransferModelFailure(t *testing.T) {
	m := NewTransferModel("duplex", "A", "B", nil)
	next, _ := m.Update(ProgressMsg{Phase: 2, Chunk: 1, Bytes: 10, Total: 100})
	next, _ = next.Update(DoneMsg{Err: errors.New("phase 2 chunk 2: read-stream: timeout")})
	m = next.(TransferModel)

	assert.Error(t, m.Err())
	assert.Contains(t, m.View(), "failed")
	assert.Contains(t, m.View(), "read-stream")
}

func TestTransferModelQuitCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewTransferModel("duplex", "A", "B", cancel)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(TransferModel)

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, m.interrupted)
}

func TestFractionEmptyInput(t *testing.T) {
	assert.Zero(t, fraction(duplex.Progress{Phase: 1}))
	assert.Equal(t, 1.0, fraction(duplex.Progress{Phase: 1, PhaseDone: true}))
}

func TestRenderPorts(t *testing.T) {
	want := serial.DeviceIdentity{VendorID: 0x20b1, ProductID: 0x4000}
	out := RenderPorts([]serial.PortCandidate{
		{Path: "/dev/ttyACM0", VendorID: 0x20b1, ProductID: 0x4000, InterfaceNumber: "00"},
		{Path: "/dev/ttyS0", Description: "Standard Serial Port"},
	}, want, true)

	assert.Contains(t, out, "Found 2 serial port(s)")
	assert.Contains(t, out, "/dev/ttyACM0")
	assert.Contains(t, out, "20b1:4000")
	assert.Contains(t, out, "/dev/ttyS0")
	assert.Equal(t, 1, strings.Count(out, "✓"))
}
