package tags

import (
	"fmt"
	"strings"
)

// Name length bounds applied after normalization.
const (
	MinNameLength = 2
	MaxNameLength = 50
)

// Normalize returns the canonical form of a tag name used for storage and
// uniqueness comparison.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateName checks a tag name against the naming rules. The name is
// normalized before checking, so "  Breakfast  " and "breakfast" validate
// identically.
func ValidateName(name string) error {
	normalized := Normalize(name)
	if normalized == "" {
		return fmt.Errorf("tag name is required")
	}
	if len(normalized) < MinNameLength {
		return fmt.Errorf("tag name must be at least %d characters", MinNameLength)
	}
	if len(normalized) > MaxNameLength {
		return fmt.Errorf("tag name must be at most %d characters", MaxNameLength)
	}
	for _, r := range normalized {
		if !isAllowedNameRune(r) {
			return fmt.Errorf("tag name contains invalid character %q", r)
		}
	}
	return nil
}

// isAllowedNameRune reports whether r may appear in a normalized tag name.
func isAllowedNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '_' || r == '-':
		return true
	default:
		return false
	}
}
