package models

import "fmt"

// ConfigurationError reports a schema problem the generator cannot work
// around: contradictory rules, an unregistered custom generator, or bounds
// that cannot be corrected by clamping. It is fatal for the scope that
// carries the problem and is surfaced before any case using that scope is
// attempted.
type ConfigurationError struct {
	Scope  string // Subcommand name, or "" for the root scope
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error in subcommand %q: %s", e.Scope, e.Detail)
}

// NewConfigurationError builds a ConfigurationError with a formatted detail.
func NewConfigurationError(scope, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Scope: scope, Detail: fmt.Sprintf(format, args...)}
}
