package verify

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePair is a transmitted file and the file captured from the peer endpoint
type FilePair struct {
	Tx string
	Rx string
}

// Comparison is the outcome of comparing one FilePair
type Comparison struct {
	Pair     FilePair
	TxSize   int64
	RxSize   int64
	Mismatch int64 // offset of the first differing byte, -1 if none
	Err      error
}

// Match reports whether the captured file is identical to the transmitted one
func (c Comparison) Match() bool {
	return c.Err == nil && c.Mismatch < 0 && c.TxSize == c.RxSize
}

func (c Comparison) String() string {
	switch {
	case c.Err != nil:
		return fmt.Sprintf("%s vs %s: %v", c.Pair.Tx, c.Pair.Rx, c.Err)
	case c.Mismatch >= 0:
		return fmt.Sprintf("%s vs %s: first difference at byte %d (%d/%d bytes)",
			c.Pair.Tx, c.Pair.Rx, c.Mismatch, c.RxSize, c.TxSize)
	case c.TxSize != c.RxSize:
		return fmt.Sprintf("%s vs %s: size %d, want %d", c.Pair.Tx, c.Pair.Rx, c.RxSize, c.TxSize)
	default:
		return fmt.Sprintf("%s vs %s: %d bytes match", c.Pair.Tx, c.Pair.Rx, c.TxSize)
	}
}

// Compare compares every pair byte for byte
func Compare(pairs []FilePair) []Comparison {
	results := make([]Comparison, len(pairs))
	for i, p := range pairs {
		results[i] = compareFiles(p)
	}
	return results
}

func compareFiles(p FilePair) Comparison {
	c := Comparison{Pair: p, Mismatch: -1}

	tx, err := os.ReadFile(p.Tx)
	if err != nil {
		c.Err = err
		return c
	}
	rx, err := os.ReadFile(p.Rx)
	if err != nil {
		c.Err = err
		return c
	}
	c.TxSize, c.RxSize = int64(len(tx)), int64(len(rx))

	n := min(len(tx), len(rx))
	for i := 0; i < n; i++ {
		if tx[i] != rx[i] {
			c.Mismatch = int64(i)
			return c
		}
	}
	if len(tx) != len(rx) {
		c.Mismatch = int64(n)
	}
	return c
}

// WriteHostReport writes the host evidence for a set of comparisons: a single
// "[TEST PASS]:" line when all match, otherwise one "[TEST FAIL]:" line per
// failing pair. It returns whether every pair matched.
func WriteHostReport(w io.Writer, results []Comparison) (bool, error) {
	var buf bytes.Buffer
	var total int64
	passed := len(results) > 0

	for _, c := range results {
		if !c.Match() {
			passed = false
			fmt.Fprintf(&buf, "[TEST FAIL]: usb cdc duplex: %s\n", c)
			continue
		}
		total += c.TxSize
	}
	if len(results) == 0 {
		buf.WriteString("[TEST FAIL]: usb cdc duplex: no file pairs compared\n")
	}
	if passed {
		fmt.Fprintf(&buf, "[TEST PASS]: usb cdc duplex (%d pairs, %d bytes)\n", len(results), total)
	}

	_, err := w.Write(buf.Bytes())
	return passed, err
}

// WriteHostReportFile writes the host report to path, creating parent directories
func WriteHostReportFile(path string, results []Comparison) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	passed, werr := WriteHostReport(f, results)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return passed, werr
}

// WriteHostFailureFile records a run that never got as far as comparing files
func WriteHostFailureFile(path string, cause error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line := fmt.Sprintf("[TEST FAIL]: usb cdc duplex: %v\n", cause)
	return os.WriteFile(path, []byte(line), 0o644)
}
