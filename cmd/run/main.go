package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/component/builtin"
	"github.com/wippyai/flowgraph/engine"
	"github.com/wippyai/flowgraph/host"
	"github.com/wippyai/flowgraph/slot"
)

// setFlags collects repeated -set name=value flags.
type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ",") }

func (s *setFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

func main() {
	var sets setFlags
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest component wasm file")
		builtinName = flag.String("builtin", "", "Builtin component ("+strings.Join(builtin.Names(), ", ")+")")
		configFile  = flag.String("config", "", "Host config file (TOML)")
		rounds      = flag.Int("rounds", 1, "Number of process calls")
		list        = flag.Bool("list", false, "List slots and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Var(&sets, "set", "Set an input slot, name=value (repeatable, YAML values)")
	flag.Parse()

	if (*wasmFile == "") == (*builtinName == "") {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-set name=value ...] [-rounds n]")
		fmt.Fprintln(os.Stderr, "       run -builtin <name> [-set name=value ...]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -builtin <name> -i  (interactive mode)")
		os.Exit(1)
	}

	opts := options{
		wasmFile:    *wasmFile,
		builtinName: *builtinName,
		configFile:  *configFile,
		sets:        sets,
		rounds:      *rounds,
		listOnly:    *list,
		interactive: *interactive,
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	wasmFile    string
	builtinName string
	configFile  string
	sets        []string
	rounds      int
	listOnly    bool
	interactive bool
}

func run(opts options) error {
	ctx := context.Background()

	cfg := host.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = host.LoadConfig(opts.configFile); err != nil {
			return err
		}
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	host.SetLogger(logger.Named("host"))
	engine.SetLogger(logger.Named("engine"))
	component.SetLogger(logger.Named("component"))

	h := host.New(cfg)
	defer h.Close(ctx)

	factory, source, err := openFactory(ctx, h, opts)
	if err != nil {
		return err
	}

	exp, err := h.Expectations()
	if err != nil {
		return err
	}
	defer exp.Dispose()

	b, err := h.Attach(ctx, factory, exp)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	defer b.Close(ctx)

	if opts.interactive {
		return runInteractive(ctx, b, source)
	}

	fmt.Printf("Component: %s %s (%s)\n", factory.Name(), factory.Version(), source)
	printSlots(b)
	if opts.listOnly {
		return nil
	}

	for _, kv := range opts.sets {
		name, raw, _ := strings.Cut(kv, "=")
		v, err := parseValue(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
		if err := b.Set(name, v); err != nil {
			return err
		}
	}

	for r := 0; r < opts.rounds; r++ {
		if err := b.Process(ctx); err != nil {
			return fmt.Errorf("process round %d: %w", r, err)
		}
	}
	logger.Debug("processed", zap.Int("rounds", opts.rounds))

	fmt.Printf("\nOutputs:\n")
	for _, d := range b.Slots() {
		if d.Direction != slot.Output {
			continue
		}
		v, err := b.Get(d.Name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s = %v\n", d.Name, v)
	}

	return b.Done(ctx)
}

func openFactory(ctx context.Context, h *host.Host, opts options) (component.Factory, string, error) {
	if opts.builtinName != "" {
		f, ok := builtin.Lookup(opts.builtinName)
		if !ok {
			return nil, "", fmt.Errorf("unknown builtin %q (have %s)", opts.builtinName, strings.Join(builtin.Names(), ", "))
		}
		return f, "builtin", nil
	}

	data, err := os.ReadFile(opts.wasmFile)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	m, err := h.LoadWasm(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("load component: %w", err)
	}
	return m, opts.wasmFile, nil
}

func printSlots(b *host.Binding) {
	fmt.Printf("\nSlots:\n")
	for _, d := range b.Slots() {
		fmt.Printf("  %-6s %s: %s\n", d.Direction, funcStyle.Render(d.Name), typeStyle.Render(d.Type.String()))
	}
}

// parseValue reads a slot value written as YAML: 2.5, [1, 2, 3] or
// [2.0, [1, 2, 3, 4]] for an object; null is a null pointer.
func parseValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
