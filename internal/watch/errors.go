package watch

import (
	"fmt"
	"time"
)

// ResourceWrongStatusError reports a watched resource that never reached
// the expected status.
type ResourceWrongStatusError struct {
	Resource string
	Field    string
	// Expected is the target value, or the description of the condition
	// when Conditional is set.
	Expected    string
	Conditional bool
	// Last is the last observed field value, empty when the field was
	// never present.
	Last string
	// Observed is false when the resource itself was never found.
	Observed bool
	Elapsed  time.Duration
}

func (e *ResourceWrongStatusError) Error() string {
	if !e.Observed {
		return fmt.Sprintf("%s never appeared within %s", e.Resource, e.Elapsed.Round(time.Second))
	}
	if e.Conditional {
		if e.Expected == "" {
			return fmt.Sprintf("%s did not meet the condition on %s within %s (last %q)",
				e.Resource, e.Field, e.Elapsed.Round(time.Second), e.Last)
		}
		return fmt.Sprintf("%s did not reach %s on %s within %s (last %q)",
			e.Resource, e.Expected, e.Field, e.Elapsed.Round(time.Second), e.Last)
	}
	return fmt.Sprintf("%s did not reach %s=%q within %s (last %q)",
		e.Resource, e.Field, e.Expected, e.Elapsed.Round(time.Second), e.Last)
}
