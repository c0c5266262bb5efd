package config

import (
	"errors"
	"fmt"
)

// Field identifies which run argument a ConfigError is about.
type Field string

const (
	FieldArgs     Field = "args"
	FieldOxygen   Field = "oxygen"
	FieldHydrogen Field = "hydrogen"
	FieldWait     Field = "wait_ms"
	FieldBond     Field = "bond_ms"
)

// Describe returns the operator-facing name of the field.
func (f Field) Describe() string {
	switch f {
	case FieldOxygen:
		return "oxygen count"
	case FieldHydrogen:
		return "hydrogen count"
	case FieldWait:
		return "max wait time"
	case FieldBond:
		return "max bond time"
	default:
		return "argument list"
	}
}

// ConfigError reports one invalid run argument.
type ConfigError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == FieldArgs {
		return fmt.Sprintf("invalid %s: %s", e.Field.Describe(), e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field.Describe(), e.Value, e.Reason)
}

// IsConfigError reports whether err (or anything it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FieldOf returns the field of a wrapped ConfigError, or "" if err is not one.
func FieldOf(err error) Field {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}
