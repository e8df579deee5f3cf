/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	serial "github.com/allbin/serial-hil"
	"github.com/allbin/serial-hil/internal/tui"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List the serial ports visible to the host with their USB identity.

With --match only ports whose VID:PID equals the configured identity are
shown, in the order the duplex command would use them.

Example usage:
  cdchil list
  cdchil list --match --table
  cdchil list --enumerator bugst --identity 0403:6010`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := cfg.DeviceIdentity()
		if err != nil {
			return err
		}

		matchOnly, _ := cmd.Flags().GetBool("match")
		tableFormat, _ := cmd.Flags().GetBool("table")

		candidates, err := cfg.PortEnumerator().Enumerate()
		if err != nil {
			return fmt.Errorf("failed to list ports: %w", err)
		}
		if matchOnly {
			candidates = serial.Filter(candidates, id)
		}

		if len(candidates) == 0 {
			if matchOnly {
				fmt.Printf("No serial ports found matching %s\n", id)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			fmt.Println(tui.RenderPorts(candidates, id, !matchOnly))
			return nil
		}

		for _, c := range candidates {
			if c.VendorID == 0 && c.ProductID == 0 {
				fmt.Println(c.Path)
				continue
			}
			fmt.Printf("%s %s\n", c.Path, c.Identity())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("match", "m", false, "Only list ports matching the configured identity")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}
