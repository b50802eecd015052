package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree. Tests build a fresh tree per run so
// flag values never leak between executions.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "granble",
		Short: "Granboard Bluetooth dartboard client",
		Long: `Granboard Bluetooth Low Energy dartboard client:

- Find the board among nearby BLE peripherals
- Connect, subscribe to throw notifications and print every dart and player change
- Decode raw board tokens offline

Ctrl+C disconnects from the board; the process exits after the shutdown timeout even
if the board never acknowledges.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
		// main() prints clean errors
		SilenceErrors: true,
	}

	root.AddCommand(newWatchCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newDecodeCmd())

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("verbose", false, "Debug logging (same as --log-level debug)")
	flags.String("format", "", "Output format (text, json)")
	flags.String("backend", "", "BLE backend (go-ble, tinygo)")

	root.Flags().BoolP("version", "v", false, "Show version information")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
