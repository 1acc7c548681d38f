package builtin

import (
	"sort"

	"github.com/wippyai/flowgraph/component"
)

var registry = map[string]func() component.Factory{
	"accumulate": Accumulate,
	"scale":      Scale,
}

// Lookup returns the factory of the named builtin component.
func Lookup(name string) (component.Factory, bool) {
	fn, ok := registry[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Names lists the builtin components in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
