package capability

import (
	"fmt"
	"strings"
)

// Kind is the capability kind a registry is parameterized by.
type Kind string

const (
	KindTool     Kind = "tool"
	KindPrompt   Kind = "prompt"
	KindResource Kind = "resource"
)

// DefaultCategory is used when an operation declares no meta marker or an
// empty category.
const DefaultCategory = "general"

// Kinds returns all capability kinds in display order.
func Kinds() []Kind {
	return []Kind{KindTool, KindPrompt, KindResource}
}

// Plural returns the plural form used in CLI output and log lines.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Marker names the declaration an operation must carry to count as a
// capability of this kind.
func (k Kind) Marker() string {
	switch k {
	case KindTool:
		return "Tool"
	case KindPrompt:
		return "Prompt"
	case KindResource:
		return "Resource or ResourceTemplate"
	default:
		return "unknown"
	}
}

// ParseKind accepts singular and plural forms, case-insensitively.
func ParseKind(s string) (Kind, error) {
	normalized := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, k := range Kinds() {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown capability kind %q", s)
}
