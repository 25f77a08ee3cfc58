package rules

import (
	"errors"
	"fmt"
)

// UnsupportedFieldError reports a condition referencing a field outside the
// closed registry.
type UnsupportedFieldError struct {
	Field string
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("unsupported field %q", e.Field)
}

// UnsupportedOperatorError reports an operator unknown to every field type.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q for field %q", e.Operator, e.Field)
}

// InvalidValueError reports a condition value that cannot be coerced to the
// field's type, or a malformed date range.
type InvalidValueError struct {
	Field    string
	Operator string
	Reason   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s %s: %s", e.Field, e.Operator, e.Reason)
}

// InvalidFieldTypeError reports an operator applied to a field of the wrong
// type, e.g. a numeric comparison against email.
type InvalidFieldTypeError struct {
	Field    string
	Operator string
}

func (e *InvalidFieldTypeError) Error() string {
	return fmt.Sprintf("operator %q does not apply to field %q", e.Operator, e.Field)
}

// ValidationError reports a structurally invalid rule document.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	ErrEmptyRule = &ValidationError{Reason: "rule must contain at least one condition"}
	ErrTooDeep   = &ValidationError{Reason: "rule nesting exceeds maximum depth"}
)

// IsRuleError reports whether err originated from rule validation or predicate
// construction, as opposed to a repository failure.
func IsRuleError(err error) bool {
	var (
		uf *UnsupportedFieldError
		uo *UnsupportedOperatorError
		iv *InvalidValueError
		ft *InvalidFieldTypeError
		va *ValidationError
	)
	return errors.As(err, &uf) ||
		errors.As(err, &uo) ||
		errors.As(err, &iv) ||
		errors.As(err, &ft) ||
		errors.As(err, &va)
}
