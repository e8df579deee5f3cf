/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serial-hil"
	"github.com/allbin/serial-hil/internal/tui"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [port]",
	Short: "Reset the target's USB device",
	Long: `Perform a USB-level reset to recover a target whose CDC interfaces stopped
answering, without physically unplugging it.

The device re-enumerates after the reset and port paths may change; the
duplex command locates ports by identity so this is harmless.

Requirements:
- Linux: bus and device numbers are read from sysfs, also with --enumerator bugst
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo cdchil reset --match            # Reset every device with the configured identity
  sudo cdchil reset /dev/ttyACM0       # Reset by port path
  sudo cdchil reset --serial NC7ILXW1  # Reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		match, _ := cmd.Flags().GetBool("match")

		selectors := len(args)
		if serialFlag != "" {
			selectors++
		}
		if match {
			selectors++
		}
		if selectors != 1 {
			return errors.New("requires exactly one of: a port path, --serial or --match")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		if !serial.IsUSBResetAvailable() {
			return fmt.Errorf("%w (install with: sudo apt-get install usbutils)", serial.ErrUSBResetNotAvailable)
		}

		serialFlag, _ := cmd.Flags().GetString("serial")
		match, _ := cmd.Flags().GetBool("match")

		switch {
		case match:
			id, err := cfg.DeviceIdentity()
			if err != nil {
				return err
			}
			logger.Info("resetting devices", "identity", id)
			n, err := serial.ResetMatching(cfg.PortEnumerator(), id)
			if err != nil {
				return err
			}
			fmt.Println(tui.Success(fmt.Sprintf("reset %d USB device(s) matching %s", n, id)))

		case serialFlag != "":
			logger.Info("resetting device", "serial", serialFlag)
			if err := serial.ResetUSBDeviceBySerial(serialFlag); err != nil {
				return err
			}
			fmt.Println(tui.Success("USB device reset successfully"))

		default:
			logger.Info("resetting device", "port", args[0])
			if err := serial.ResetUSBDevice(args[0]); err != nil {
				if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
					return fmt.Errorf("%s does not appear to be a USB device: %w", args[0], err)
				}
				return err
			}
			fmt.Println(tui.Success("USB device reset successfully"))
		}

		fmt.Println(tui.Info("device will re-enumerate (port paths may change)"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number")
	resetCmd.Flags().Bool("match", false, "Reset every device with the configured identity")
}
