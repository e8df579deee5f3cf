/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/allbin/serial-hil/internal/config"
	"github.com/allbin/serial-hil/internal/logging"
	"github.com/allbin/serial-hil/internal/tui"
)

var (
	cfgFile string
	v       = config.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cdchil",
	Short: "Hardware-in-the-loop tests for USB CDC device pairs",
	Long: `cdchil drives data-integrity tests against an embedded target that
exposes two USB CDC (virtual serial) interfaces and echoes bytes received on
one interface out of the other.

It locates the two ports by USB vendor/product id, streams files through
each port while capturing the peer, and validates the PASS markers written
by the target and by the host run.

Settings come from flags, CDCHIL_* environment variables and an optional
cdchil.yaml, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version reported by --version
func SetVersion(version string) {
	rootCmd.Version = version
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.Failure("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./cdchil.yaml)")
	flags.String("identity", "20b1:4000", "USB VID:PID of the target's CDC interfaces")
	flags.String("enumerator", config.EnumeratorSysfs, "Port enumeration backend: sysfs, bugst")
	flags.String("transport", config.TransportNative, "Serial transport: native, bugst")
	flags.Duration("read-timeout", 5*time.Second, "Read timeout per chunk, multiple of 100ms up to 25.5s")
	flags.IntP("baud", "b", 115200, "Baud rate")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	bindFlag("identity", flags.Lookup("identity"))
	bindFlag("enumerator", flags.Lookup("enumerator"))
	bindFlag("transport", flags.Lookup("transport"))
	bindFlag("read_timeout", flags.Lookup("read-timeout"))
	bindFlag("baud_rate", flags.Lookup("baud"))
	bindFlag("log_level", flags.Lookup("log-level"))
}

// bindFlag binds a flag to a config key; an unset flag never shadows the config file or environment
func bindFlag(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag for %s: %v", key, err))
	}
}

// loadConfig resolves the configuration and sets up logging on stderr
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.Init(os.Stderr, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
