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

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display the sysfs metadata of a serial port and whether it matches the
configured USB identity.

Examples:
  cdchil info /dev/ttyACM0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := cfg.DeviceIdentity()
		if err != nil {
			return err
		}

		info, err := serial.GetPortInfo(args[0])
		if err != nil {
			return fmt.Errorf("failed to get port info: %w", err)
		}

		fmt.Println(tui.TitleStyle.Render("Port Information: " + info.Path))
		printField("Name", info.Name)
		printField("Description", info.Description)

		if !info.IsUSB() {
			fmt.Println(tui.Warning("no USB metadata; not a candidate for " + id.String()))
			return nil
		}

		fmt.Println()
		printField("Vendor ID", info.VendorID)
		printField("Product ID", info.ProductID)
		printField("Serial", info.SerialNumber)
		printField("Interface", info.InterfaceNumber)
		printField("Bus", info.BusNumber)
		printField("Device", info.DeviceNumber)
		printField("Manufacturer", info.Manufacturer)
		printField("Product", info.Product)

		portID, err := serial.ParseIdentity(info.VendorID + ":" + info.ProductID)
		switch {
		case err != nil:
			fmt.Println(tui.Warning("unparseable USB identity"))
		case portID == id:
			fmt.Println(tui.Success("matches " + id.String()))
		default:
			fmt.Println(tui.Info(portID.String() + " does not match " + id.String()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %-13s %s\n", label+":", value)
}
