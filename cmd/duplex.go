/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serial-hil"
	"github.com/allbin/serial-hil/duplex"
	"github.com/allbin/serial-hil/internal/config"
	"github.com/allbin/serial-hil/internal/logging"
	"github.com/allbin/serial-hil/internal/tui"
	"github.com/allbin/serial-hil/verify"
)

// duplexCmd represents the duplex command
var duplexCmd = &cobra.Command{
	Use:   "duplex",
	Short: "Stream files through both CDC ports of the target",
	Long: `Run the two-phase CDC data-integrity test.

The two ports matching the configured USB identity are opened. Phase 1 sends
--if0 to port 0 and captures the same number of bytes from port 1 into
--of1. Phase 2 sends --if1 to port 1 and captures port 0 into --of0.

With --host-report the captured files are compared with the transmitted ones
and a "[TEST PASS]:" or "[TEST FAIL]:" line is written for 'cdchil verify'.

Example usage:
  cdchil duplex --if0 tx_data0 --if1 tx_data1 --of0 rx_data0 --of1 rx_data1
  cdchil duplex --if0 tx0 --if1 tx1 --of0 rx0 --of1 rx1 --host-report testing/host.rpt
  cdchil duplex --if0 tx0 --if1 tx1 --of0 rx0 --of1 rx1 --ports /dev/ttyACM2,/dev/ttyACM3 --tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		files := duplex.Files{}
		files.TxA, _ = cmd.Flags().GetString("if0")
		files.TxB, _ = cmd.Flags().GetString("if1")
		files.RxA, _ = cmd.Flags().GetString("of0")
		files.RxB, _ = cmd.Flags().GetString("of1")
		ports, _ := cmd.Flags().GetStringSlice("ports")
		hostReport, _ := cmd.Flags().GetString("host-report")
		useTUI, _ := cmd.Flags().GetBool("tui")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runErr := runDuplex(ctx, cfg, logger, files, ports, useTUI)
		if hostReport == "" {
			return runErr
		}
		return writeHostReport(hostReport, files, runErr)
	},
}

func init() {
	rootCmd.AddCommand(duplexCmd)

	flags := duplexCmd.Flags()
	flags.String("if0", "", "Input file for port 0's transmit data")
	flags.String("if1", "", "Input file for port 1's transmit data")
	flags.String("of0", "", "Output file for port 0's received data")
	flags.String("of1", "", "Output file for port 1's received data")
	flags.StringSlice("ports", nil, "Use these two device paths instead of locating them by identity")
	flags.Int("chunk-size", duplex.DefaultChunkSize, "Bytes per write/read round trip")
	flags.Int("min-ports", 2, "Matching ports that must be present")
	flags.String("host-report", "", "Compare captures and write the host evidence report to this path")
	flags.Bool("tui", false, "Show an interactive progress display")

	for _, name := range []string{"if0", "if1", "of0", "of1"} {
		if err := duplexCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	bindFlag("chunk_size", flags.Lookup("chunk-size"))
	bindFlag("min_ports", flags.Lookup("min-ports"))
}

// selectPorts returns the device paths of port 0 and port 1
func selectPorts(cfg config.Config, logger *slog.Logger, explicit []string) (string, string, error) {
	if len(explicit) > 0 {
		if len(explicit) != 2 {
			return "", "", fmt.Errorf("--ports needs exactly two device paths, got %d", len(explicit))
		}
		return explicit[0], explicit[1], nil
	}

	id, err := cfg.DeviceIdentity()
	if err != nil {
		return "", "", err
	}
	candidates, err := serial.Locate(cfg.PortEnumerator(), id, cfg.MinPorts)
	if err != nil {
		return "", "", err
	}
	for i, c := range candidates {
		logger.Debug("located port", "index", i, "path", c.Path, "identity", c.Identity(), "interface", c.InterfaceNumber)
	}
	return candidates[0].Path, candidates[1].Path, nil
}

func runDuplex(ctx context.Context, cfg config.Config, logger *slog.Logger, files duplex.Files, explicit []string, useTUI bool) error {
	pathA, pathB, err := selectPorts(cfg, logger, explicit)
	if err != nil {
		return err
	}

	// The progress display owns the terminal, so engine logging is dropped.
	if useTUI {
		logger = logging.Discard()
	}

	a, b, err := duplex.OpenPair(cfg.Opener(), pathA, pathB, logger)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, progress func(duplex.Progress)) error {
		return duplex.Run(ctx, a, b, files,
			duplex.WithChunkSize(cfg.ChunkSize),
			duplex.WithLogger(logger),
			duplex.WithProgress(progress))
	}

	if useTUI {
		return tui.RunTransfer(ctx, "USB CDC duplex test", pathA, pathB, run)
	}

	if err := run(ctx, nil); err != nil {
		return err
	}
	fmt.Println(tui.Success(fmt.Sprintf("duplex transfer complete (%s ↔ %s)", pathA, pathB)))
	return nil
}

// writeHostReport records the run in the host evidence report. The run's own
// error takes precedence over a failed comparison.
func writeHostReport(path string, files duplex.Files, runErr error) error {
	if runErr != nil {
		if err := verify.WriteHostFailureFile(path, runErr); err != nil {
			return errors.Join(runErr, fmt.Errorf("failed to write host report: %w", err))
		}
		return runErr
	}

	results := verify.Compare([]verify.FilePair{
		{Tx: files.TxA, Rx: files.RxB},
		{Tx: files.TxB, Rx: files.RxA},
	})
	for _, r := range results {
		if r.Match() {
			fmt.Println(tui.Success(r.String()))
		} else {
			fmt.Println(tui.Failure(r.String()))
		}
	}

	passed, err := verify.WriteHostReportFile(path, results)
	if err != nil {
		return fmt.Errorf("failed to write host report: %w", err)
	}
	if !passed {
		return errors.New("received data does not match transmitted data")
	}
	fmt.Println(tui.Info("host report written to " + path))
	return nil
}
