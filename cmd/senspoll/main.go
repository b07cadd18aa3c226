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

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "senspoll",
		Short: "Poll BLE environmental and color sensors",
		Long: `senspoll connects to BLE sensor peripherals as a central and polls their
characteristics on a fixed cadence:

- Match advertising peers against an allow-list by name and/or address
- Connect one peer at a time, discover its service and characteristics
- Read every discovered characteristic in turn, one request in flight per peer
- Decode temperature, humidity, pressure and RGB intensities`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),

		// main() prints clean errors
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose output (same as --log-level debug)")
	root.PersistentFlags().StringP("config", "c", "", "YAML configuration file")

	root.AddCommand(newRunCmd(), newPeersCmd(), newDecodeCmd())
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
