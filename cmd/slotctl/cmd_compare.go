package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
)

// errMismatch makes the command exit with status 1 without an error message.
var errMismatch = errors.New("schemas differ")

var compareCmd = &cobra.Command{
	Use:   "compare <a.yaml> <b.yaml>",
	Short: "Compare two schemas slot by slot (exit status 1 on mismatch)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := loadDescriptors(args[0])
	if err != nil {
		return err
	}
	defer disposeAll(a)
	b, err := loadDescriptors(args[1])
	if err != nil {
		return err
	}
	defer disposeAll(b)

	if !compareSlots(cmd, a, b) {
		return errMismatch
	}
	return nil
}

// compareSlots reports every slot of a and b, matched by direction and name.
func compareSlots(cmd *cobra.Command, a, b []slot.Descriptor) bool {
	out := cmd.OutOrStdout()
	same := true
	for _, d := range a {
		idx, ok := slot.Find(b, d.Direction, d.Name)
		switch {
		case !ok:
			fmt.Fprintf(out, "- %s %s: %s\n", d.Direction, d.Name, d.Type)
			same = false
		case !slot.Equal(d.Type, b[idx].Type):
			fmt.Fprintf(out, "! %s %s: %s != %s\n", d.Direction, d.Name, d.Type, b[idx].Type)
			same = false
		default:
			fmt.Fprintf(out, "= %s %s: %s\n", d.Direction, d.Name, d.Type)
		}
	}
	for _, d := range b {
		if _, ok := slot.Find(a, d.Direction, d.Name); !ok {
			fmt.Fprintf(out, "+ %s %s: %s\n", d.Direction, d.Name, d.Type)
			same = false
		}
	}
	return same
}

func loadDescriptors(path string) ([]slot.Descriptor, error) {
	m, err := wire.LoadSchema(path)
	if err != nil {
		return nil, err
	}
	return m.Descriptors()
}
