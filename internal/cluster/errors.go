package cluster

import "fmt"

// ConfigurationError reports an inconsistent cluster-set or deployment
// configuration, such as two hubs or managed clusters spread over more
// than one cluster set.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "unexpected deployment configuration: " + e.Reason
}

// Errorf builds a ConfigurationError with a formatted reason.
func Errorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
