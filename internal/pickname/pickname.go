// Package pickname validates and normalizes pick request names.
//
// Names are 3-50 characters, start with a letter, and contain only letters,
// digits, underscore, and hyphen. They are stored lowercase.
package pickname

import (
	"regexp"
	"strings"

	"pickcoordinator/internal/apperr"
)

const (
	MinLength = 3
	MaxLength = 50
)

var pattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,49}$`)

// Validate checks name and returns its normalized (lowercase) form.
// Returns an apperr with CodeInvalidRequestName on failure.
func Validate(name string) (string, error) {
	if name == "" {
		return "", invalid("name is required")
	}

	trimmed := strings.TrimSpace(name)

	if strings.Contains(trimmed, " ") {
		return "", invalid("name cannot contain spaces")
	}
	if len(trimmed) < MinLength {
		return "", invalid("name must be at least 3 characters")
	}
	if len(trimmed) > MaxLength {
		return "", invalid("name must be at most 50 characters")
	}
	if !isAlpha(trimmed[0]) {
		return "", invalid("name must start with a letter")
	}
	if !pattern.MatchString(trimmed) {
		return "", invalid("name can only contain letters, numbers, underscores, and hyphens")
	}

	return strings.ToLower(trimmed), nil
}

// IsValid reports whether name passes Validate.
func IsValid(name string) bool {
	_, err := Validate(name)
	return err == nil
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func invalid(reason string) error {
	return apperr.New(apperr.CodeInvalidRequestName, reason).WithDetails(map[string]interface{}{
		"reason": reason,
	})
}
