package serial

import (
	"go.bug.st/serial/enumerator"
)

// BugstEnumerator enumerates ports through go.bug.st/serial/enumerator,
// which works on Linux, macOS and Windows. Ports are returned in the order
// the operating system reports them.
type BugstEnumerator struct {
	// list defaults to enumerator.GetDetailedPortsList
	list func() ([]*enumerator.PortDetails, error)
}

func (b BugstEnumerator) Enumerate() ([]PortCandidate, error) {
	list := b.list
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}

	details, err := list()
	if err != nil {
		return nil, err
	}

	candidates := make([]PortCandidate, 0, len(details))
	for _, d := range details {
		c := PortCandidate{
			Path:         d.Name,
			SerialNumber: d.SerialNumber,
			Description:  d.Product,
		}
		if d.IsUSB {
			vid, verr := parseUSBID(d.VID)
			pid, perr := parseUSBID(d.PID)
			if verr == nil && perr == nil {
				c.VendorID, c.ProductID = vid, pid
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
