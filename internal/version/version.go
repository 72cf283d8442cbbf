package version

import (
	"regexp"
	"strings"
)

var concretePattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// Normalize strips surrounding whitespace and newlines from a version string.
func Normalize(value string) string {
	return strings.TrimSpace(value)
}

// IsConcrete reports whether value is a strict MAJOR.MINOR.PATCH version.
// Anything else (e.g. "lts", "latest") is a symbolic alias.
func IsConcrete(value string) bool {
	return concretePattern.MatchString(Normalize(value))
}

// Equal reports whether the deployed version already matches the target.
// An alias current value never equals a concrete target, so an aliased
// deployment is always pinned on the next update run.
func Equal(current, target string) bool {
	current = Normalize(current)
	target = Normalize(target)
	if !IsConcrete(current) {
		return false
	}
	return current == target
}
