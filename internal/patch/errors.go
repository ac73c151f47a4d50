package patch

import (
	"errors"
	"fmt"
)

// PatternError reports a source pattern that did not match exactly once.
type PatternError struct {
	// Target names the file or artifact being patched.
	Target string
	// Pattern describes what was searched for.
	Pattern string
	// Matches is the number of matches found.
	Matches int
}

func (e *PatternError) Error() string {
	if e == nil {
		return "pattern mismatch"
	}
	target := e.Target
	if target == "" {
		target = "source"
	}
	return fmt.Sprintf("%s: expected exactly one match for %s, found %d", target, e.Pattern, e.Matches)
}

// IsPatternError reports whether err is a pattern-match failure.
func IsPatternError(err error) bool {
	var target *PatternError
	return errors.As(err, &target)
}
