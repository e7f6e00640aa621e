package dynamo

import (
	"errors"
	"fmt"
)

// Configuration errors. These abort a solve immediately: they indicate the
// problem was declared incorrectly, not that the numerics struggled.
var (
	// ErrUnknownState indicates a constraint referenced an undeclared state variable.
	ErrUnknownState = errors.New("dynamo: unknown state variable")

	// ErrUnknownParam indicates a reference to an undeclared derived parameter.
	ErrUnknownParam = errors.New("dynamo: unknown derived parameter")

	// ErrMalformedBounds indicates parameter bounds with min >= max or a
	// default outside the declared range.
	ErrMalformedBounds = errors.New("dynamo: malformed parameter bounds")

	// ErrDuplicateName indicates two schema entries sharing a name.
	ErrDuplicateName = errors.New("dynamo: duplicate schema name")

	// ErrEmptySchema indicates a model without declared states or parameters.
	ErrEmptySchema = errors.New("dynamo: empty model schema")

	// ErrNonPositiveWeight indicates a constraint weight <= 0.
	ErrNonPositiveWeight = errors.New("dynamo: constraint weight must be positive")

	// ErrNonFiniteDerivative indicates the model produced NaN or Inf.
	ErrNonFiniteDerivative = errors.New("dynamo: model produced non-finite derivative")

	// ErrDimensionMismatch indicates mismatched state/parameter dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between vector and schema")
)

// ConfigError wraps a sentinel cause with the offending field.
type ConfigError struct {
	Field   string
	Detail  string
	Wrapped error
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s: %s", e.Wrapped, e.Field, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Wrapped, e.Field)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
