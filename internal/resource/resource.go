package resource

import (
	"fmt"
	"strings"
)

// Type is a bitmask of override resource kinds.
type Type int

const (
	Strings Type = 1 << iota
	Textures
	Assets

	None Type = 0
	All       = Strings | Textures | Assets
)

var names = []struct {
	name string
	t    Type
}{
	{"Strings", Strings},
	{"Textures", Textures},
	{"Assets", Assets},
}

// Has reports whether any bit of want is set in t.
func (t Type) Has(want Type) bool {
	return t&want != 0
}

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case All:
		return "All"
	}
	var parts []string
	for _, n := range names {
		if t&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Parse reads a pipe-separated list such as "Strings|Textures".
// Names are case-insensitive; "All" and "None" are accepted.
func Parse(s string) (Type, error) {
	var t Type
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.EqualFold(part, "None"):
			continue
		case strings.EqualFold(part, "All"):
			t |= All
			continue
		}

		found := false
		for _, n := range names {
			if strings.EqualFold(part, n.name) {
				t |= n.t
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown resource type %q", part)
		}
	}
	return t, nil
}
