package pricing

import "fmt"

// ValidationError reports bad user input (non-positive dimensions, unknown
// selected option, negative overlap). No partial result accompanies it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError reports bad catalog data: a required slot with no
// usable variants, a degenerate panel layout, a unit the engine cannot
// price. It is actionable by catalog administrators, not the end user.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// NotFoundError reports a missing or inactive catalog reference. It is
// surfaced before any computation begins.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found or inactive", e.Resource, e.ID)
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func configurationf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
