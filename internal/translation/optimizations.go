package translation

import (
	"fmt"
	"strings"
)

// Optimizations selects when per-level rule sets are loaded and unloaded.
type Optimizations int

const (
	// OptLoadOnLevelChange parses the new level's files when it is activated.
	OptLoadOnLevelChange Optimizations = 1 << (iota + 1)
	// OptLoadOnTranslate defers parsing until the first lookup and queries
	// the global scope first until the level scope has loaded.
	OptLoadOnTranslate
	// OptUnloadOnLevelChange drops the previous level's rules on a switch.
	OptUnloadOnLevelChange

	OptNone Optimizations = 0

	OptSimple     = OptLoadOnLevelChange | OptUnloadOnLevelChange
	OptAggressive = OptLoadOnTranslate | OptUnloadOnLevelChange

	// OptLazyLoad is a guard, not a preset: level files are registered
	// without parsing when either load flag is set.
	OptLazyLoad = OptLoadOnLevelChange | OptLoadOnTranslate
)

var optNames = []struct {
	name string
	opt  Optimizations
}{
	{"None", OptNone},
	{"LoadOnLevelChange", OptLoadOnLevelChange},
	{"LoadOnTranslate", OptLoadOnTranslate},
	{"UnloadOnLevelChange", OptUnloadOnLevelChange},
	{"Simple", OptSimple},
	{"Aggressive", OptAggressive},
	{"Aggresive", OptAggressive},
	{"LazyLoad", OptLazyLoad},
}

// Enabled reports whether any bit of flag is set.
func (o Optimizations) Enabled(flag Optimizations) bool {
	return o&flag != 0
}

func (o Optimizations) String() string {
	if o == OptNone {
		return "None"
	}
	switch o {
	case OptSimple:
		return "Simple"
	case OptAggressive:
		return "Aggressive"
	}
	var parts []string
	for _, n := range optNames[1:4] {
		if o&n.opt != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseOptimizations reads a pipe- or comma-separated list of flag and
// preset names, case-insensitively.
func ParseOptimizations(s string) (Optimizations, error) {
	var o Optimizations
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, n := range optNames {
			if strings.EqualFold(part, n.name) {
				o |= n.opt
				found = true
				break
			}
		}
		if !found {
			return OptNone, fmt.Errorf("unknown memory optimization %q", part)
		}
	}
	return o, nil
}
