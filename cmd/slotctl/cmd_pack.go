package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/flowgraph/slot/wire"
)

var packFlags struct {
	output string
}

var packCmd = &cobra.Command{
	Use:   "pack <schema.yaml>",
	Short: "Encode a schema as the CBOR manifest embedded in guest components",
	Long: "Encode a schema as the CBOR manifest guests carry in the " + wire.SectionName + " custom section.\n" +
		"Embed the output with a linker flag or a wasm section tool.",
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	f := packCmd.Flags()
	f.StringVarP(&packFlags.output, "output", "o", "", "Output file (required)")

	_ = packCmd.MarkFlagRequired("output")
}

func runPack(cmd *cobra.Command, args []string) error {
	m, err := wire.LoadSchema(args[0])
	if err != nil {
		return err
	}
	data, err := wire.MarshalManifest(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(packFlags.output, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), packFlags.output)
	return nil
}
