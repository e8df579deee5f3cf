/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/serial-hil/internal/tui"
	"github.com/allbin/serial-hil/verify"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the PASS markers in the target and host reports",
	Long: `Validate the evidence left by a test run.

By default two reports under the project root are checked:
  testing/target.rpt  one "Tile[n]|FCore[n]|<t>|TEST|PASS USB" line per core
                      and no line with any other verdict
  testing/host.rpt    exactly one "[TEST PASS]:" line

Other reports, patterns and counts can be configured under "evidence" in
cdchil.yaml. Every failing check is reported, not only the first.

Example usage:
  cdchil verify
  cdchil verify --root ../sdk --cores 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		patterns := cfg.Patterns()
		return printValidation(os.Stdout, patterns, verify.Validate(patterns))
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("root", ".", "Project root the report paths are relative to")
	verifyCmd.Flags().Int("cores", 2, "Number of cores expected to report PASS")

	bindFlag("root", verifyCmd.Flags().Lookup("root"))
	bindFlag("cores", verifyCmd.Flags().Lookup("cores"))
}

// printValidation writes one status line per pattern and returns err.
// Errors other than a *verify.ValidationError are returned without output.
func printValidation(w io.Writer, patterns []verify.EvidencePattern, err error) error {
	var verr *verify.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}

	failed := make(map[int]verify.Failure)
	if verr != nil {
		for _, f := range verr.Failures {
			failed[f.Index] = f
		}
	}

	for i, p := range patterns {
		if f, ok := failed[i]; ok {
			fmt.Fprintln(w, tui.Failure(f.String()))
			continue
		}
		fmt.Fprintln(w, tui.Success(fmt.Sprintf("%s (%s): %d matches", p.Name, p.Path, p.Expected)))
	}
	return err
}
