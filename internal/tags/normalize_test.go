package tags

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Breakfast", "breakfast"},
		{"  Breakfast  ", "breakfast"},
		{"GLUTEN-FREE", "gluten-free"},
		{"slow cooker", "slow cooker"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"breakfast", "  Breakfast  ", "gluten-free", "30_minute", "slow cooker", "ab"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []struct {
		name   string
		reason string
	}{
		{"", "empty"},
		{"   ", "whitespace only"},
		{"a", "too short"},
		{strings.Repeat("x", MaxNameLength+1), "too long"},
		{"crème", "non-ascii letter"},
		{"tag!", "punctuation"},
		{"a,b", "comma"},
	}
	for _, tc := range invalid {
		if err := ValidateName(tc.name); err == nil {
			t.Fatalf("ValidateName(%q) expected error (%s), got nil", tc.name, tc.reason)
		}
	}
}

func TestValidateNameNormalizesFirst(t *testing.T) {
	// Names differing only in case and padding validate identically.
	if err := ValidateName("  VEGAN  "); err != nil {
		t.Fatalf("expected padded uppercase name to validate, got %v", err)
	}
	// Padding does not count toward the length bounds.
	padded := "  " + strings.Repeat("x", MaxNameLength) + "  "
	if err := ValidateName(padded); err != nil {
		t.Fatalf("expected padded max-length name to validate, got %v", err)
	}
}
