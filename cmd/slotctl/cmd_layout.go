package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/flowgraph/slot"
)

var layoutFlags struct {
	pointerSize uint32
}

var layoutCmd = &cobra.Command{
	Use:   "layout <schema.yaml>",
	Short: "Print size, alignment and member offsets of every slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().Uint32Var(&layoutFlags.pointerSize, "pointer-size", slot.Wasm32, "Pointer width in bytes (4 or 8)")
}

func runLayout(cmd *cobra.Command, args []string) error {
	if layoutFlags.pointerSize != slot.Wasm32 && layoutFlags.pointerSize != slot.Native {
		return fmt.Errorf("--pointer-size must be %d or %d", slot.Wasm32, slot.Native)
	}
	descs, err := loadDescriptors(args[0])
	if err != nil {
		return err
	}
	defer disposeAll(descs)

	calc := slot.NewCalculator(layoutFlags.pointerSize)
	out := cmd.OutOrStdout()
	for _, d := range descs {
		fmt.Fprintf(out, "%s %s\n", d.Direction, d.Name)
		if err := printLayout(out, calc, d.Type, 0, 1); err != nil {
			return err
		}
	}
	return nil
}

func printLayout(out io.Writer, calc *slot.Calculator, t *slot.Type, offset uint32, depth int) error {
	info, err := calc.Calculate(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s%-4d %s size=%d align=%d\n", strings.Repeat("  ", depth), offset, t, info.Size, info.Align)
	if t.Kind() != slot.KindObject {
		return nil
	}
	for i := 0; i < t.Len(); i++ {
		if err := printLayout(out, calc, t.Child(i), offset+info.Offsets[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}
