package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
)

var showCmd = &cobra.Command{
	Use:   "show <schema.yaml>",
	Short: "Print the slots of a schema and their type trees",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	m, err := wire.LoadSchema(args[0])
	if err != nil {
		return err
	}
	descs, err := m.Descriptors()
	if err != nil {
		return err
	}
	defer disposeAll(descs)

	out := cmd.OutOrStdout()
	if m.Name != "" {
		fmt.Fprintf(out, "%s %s\n", m.Name, m.Version)
	}
	for _, d := range descs {
		fmt.Fprintln(out, d)
		printTree(out, d.Type)
	}
	return nil
}

func printTree(out io.Writer, t *slot.Type) {
	t.Walk(func(path []int, n *slot.Type) bool {
		indent := strings.Repeat("  ", len(path)+1)
		switch n.Kind() {
		case slot.KindArray:
			fmt.Fprintf(out, "%sarray elements=%d\n", indent, n.Elements())
		case slot.KindObject:
			if n.Ident() != "" {
				fmt.Fprintf(out, "%sobject %s members=%d\n", indent, n.Ident(), n.Len())
			} else {
				fmt.Fprintf(out, "%sobject members=%d\n", indent, n.Len())
			}
		default:
			fmt.Fprintf(out, "%s%s\n", indent, n.Kind())
		}
		return true
	})
}

func disposeAll(descs []slot.Descriptor) {
	for _, d := range descs {
		_ = d.Type.Dispose()
	}
}
