package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const maxEntityIDLength = 50

var (
	entityIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// corruptedIDRegex guards against a known upstream corruption shape:
	// ten or more leading digits followed by arbitrary word characters.
	// The pattern is a heuristic; well-formed identifiers are the invariant
	// to enforce upstream, this check is a last line of defense.
	corruptedIDRegex = regexp.MustCompile(`^[0-9]{10,}\w*$`)
)

// ValidateEntityID checks an entity identifier before it is used in any
// remote call. Returns nil if the identifier is usable.
func ValidateEntityID(id string) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(id) > maxEntityIDLength {
		return fmt.Errorf("identifier exceeds %d characters", maxEntityIDLength)
	}
	lower := strings.ToLower(id)
	if strings.Contains(lower, "undefined") || strings.Contains(lower, "null") {
		return fmt.Errorf("identifier contains placeholder text")
	}
	if !entityIDRegex.MatchString(id) {
		return fmt.Errorf("identifier contains disallowed characters")
	}
	if corruptedIDRegex.MatchString(id) {
		return fmt.Errorf("identifier matches corrupted pattern")
	}
	return nil
}

// SanitizeFilename strips characters that are unsafe in storage keys
// and HTTP headers.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\"", "")
	return name
}
