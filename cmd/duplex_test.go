package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serial-hil/duplex"
	"github.com/allbin/serial-hil/internal/config"
	"github.com/allbin/serial-hil/internal/logging"
)

func TestSelectPortsExplicit(t *testing.T) {
	a, b, err := selectPorts(config.Config{}, logging.Discard(), []string{"/dev/ttyACM2", "/dev/ttyACM3"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM2", a)
	assert.Equal(t, "/dev/ttyACM3", b)

	_, _, err = selectPorts(config.Config{}, logging.Discard(), []string{"/dev/ttyACM2"})
	assert.Error(t, err)
}

func writeFiles(t *testing.T, dir string, contents map[string]string) duplex.Files {
	t.Helper()
	for name, data := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return duplex.Files{
		TxA: filepath.Join(dir, "tx0"),
		RxB: filepath.Join(dir, "rx1"),
		TxB: filepath.Join(dir, "tx1"),
		RxA: filepath.Join(dir, "rx0"),
	}
}

func TestWriteHostReportPass(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, map[string]string{
		"tx0": "hello", "rx1": "hello",
		"tx1": "world", "rx0": "world",
	})
	report := filepath.Join(dir, "host.rpt")

	require.NoError(t, writeHostReport(report, files, nil))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[TEST PASS]:"), "report: %q", data)
}

func TestWriteHostReportMismatch(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, map[string]string{
		"tx0": "hello", "rx1": "hellO",
		"tx1": "world", "rx0": "world",
	})
	report := filepath.Join(dir, "host.rpt")

	assert.Error(t, writeHostReport(report, files, nil))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TEST FAIL]:")
}

func TestWriteHostReportRunError(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "host.rpt")
	runErr := errors.New("phase 1 chunk 3: read-stream: read timeout")

	err := writeHostReport(report, duplex.Files{}, runErr)
	assert.ErrorIs(t, err, runErr)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TEST FAIL]:")
}
