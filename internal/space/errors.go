package space

import "errors"

// ConfigError reports a malformed search-space configuration. It is fatal:
// a run must not continue over a corrupted space.
type ConfigError struct {
	Op     string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Op != "" {
		return "invalid configuration: " + e.Op + ": " + e.Reason
	}
	return "invalid configuration: " + e.Reason
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
