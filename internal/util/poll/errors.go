package poll

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by New when the timeout and interval cannot
// produce a meaningful poll.
var ErrInvalidConfig = errors.New("invalid poll configuration")

// TimeoutError reports that a bounded poll never satisfied its condition.
type TimeoutError struct {
	Timeout time.Duration
	Elapsed time.Duration
	Call    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s (limit %s) running %s", e.Elapsed.Round(time.Millisecond), e.Timeout, e.Call)
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
