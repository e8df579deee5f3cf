package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	serial "github.com/allbin/serial-hil"
)

const (
	colPath    = "path"
	colID      = "id"
	colSerial  = "serial"
	colIface   = "iface"
	colDesc    = "desc"
	colMatched = "matched"
)

// RenderPorts renders candidates as a static table. Rows whose identity equals
// want are highlighted when highlight is set.
func RenderPorts(candidates []serial.PortCandidate, want serial.DeviceIdentity, highlight bool) string {
	columns := []table.Column{
		table.NewColumn(colPath, "Port", 16),
		table.NewColumn(colID, "VID:PID", 11),
		table.NewColumn(colSerial, "Serial", 14),
		table.NewColumn(colIface, "Itf", 5),
		table.NewColumn(colDesc, "Description", 28),
		table.NewColumn(colMatched, "", 3),
	}

	rows := make([]table.Row, 0, len(candidates))
	for _, c := range candidates {
		id := "-"
		if c.VendorID != 0 || c.ProductID != 0 {
			id = c.Identity().String()
		}
		mark := ""
		matched := highlight && c.Identity() == want
		if matched {
			mark = "✓"
		}

		row := table.NewRow(table.RowData{
			colPath:    c.Path,
			colID:      id,
			colSerial:  c.SerialNumber,
			colIface:   c.InterfaceNumber,
			colDesc:    c.Description,
			colMatched: mark,
		})
		if matched {
			row = row.WithStyle(lipgloss.NewStyle().Foreground(colorGreen))
		}
		rows = append(rows, row)
	}

	t := table.New(columns).
		WithRows(rows).
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colorText)).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colorSubtext).
			BorderForeground(colorSurface).
			Align(lipgloss.Left))

	return fmt.Sprintf("%s\n%s", TitleStyle.Render(fmt.Sprintf("Found %d serial port(s)", len(candidates))), t.View())
}
