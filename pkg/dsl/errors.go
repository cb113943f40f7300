package dsl

import (
	"errors"
	"fmt"
)

// ErrInvalidDirective is wrapped by every DirectiveError.
var ErrInvalidDirective = errors.New("invalid directive")

// Check names the validation a directive value failed.
type Check string

// Directive checks, in the order they are applied.
const (
	CheckNonNumeric  Check = "non-numeric"
	CheckNonPositive Check = "non-positive"
	CheckNonArray    Check = "non-array"
)

// DirectiveError is returned in Strict mode when a directive value is malformed.
type DirectiveError struct {
	Directive string
	Check     Check
	Value     any
}

func (e *DirectiveError) Error() string {
	switch {
	case e.Directive == KeyTimes && e.Check == CheckNonNumeric:
		return "Can't set response $times with non-numeric value!"
	case e.Directive == KeyTimes:
		return fmt.Sprintf("Can't set response $times to %v!", e.Value)
	case e.Check == CheckNonNumeric:
		return fmt.Sprintf("Can't set %s with non-numeric value!", e.Directive)
	case e.Check == CheckNonArray:
		return fmt.Sprintf("Can't set %s to %v on non-array schema!", e.Directive, e.Value)
	default:
		return fmt.Sprintf("Can't set %s to %v: non-positive value!", e.Directive, e.Value)
	}
}

func (e *DirectiveError) Unwrap() error {
	return ErrInvalidDirective
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *DirectiveError) Hint() string {
	if e.Check == CheckNonArray {
		return fmt.Sprintf("%s only applies to array responses. Target an endpoint returning an array.", e.Directive)
	}
	return fmt.Sprintf("%s must be a positive integer.", e.Directive)
}
