// slotctl inspects and packs slot schemas.
//
// Usage:
//
//	slotctl show <schema.yaml>
//	slotctl compare <a.yaml> <b.yaml>
//	slotctl layout [--pointer-size=4|8] <schema.yaml>
//	slotctl pack <schema.yaml> -o <manifest.cbor>
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slotctl",
	Short: "Inspect, compare and pack component slot schemas",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(packCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
