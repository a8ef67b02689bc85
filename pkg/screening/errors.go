package screening

import "fmt"

// ValidationError reports malformed caller input. It is always recoverable
// locally and never accompanies a state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
