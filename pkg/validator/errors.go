package validator

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by Error.
var (
	ErrUnknownCode   = errors.New("unknown status code")
	ErrMissingSchema = errors.New("missing response schema")
	ErrUnresolvedKey = errors.New("unresolved state key")
)

// Error describes why a state cannot apply to an operation.
type Error struct {
	Err         error
	Code        string
	ContentType string
	Key         string
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownCode):
		return fmt.Sprintf("Can't find response for given status code '%s'!", e.Code)
	case errors.Is(e.Err, ErrMissingSchema):
		return fmt.Sprintf("No schema defined for response '%s' '%s'!", e.Code, e.ContentType)
	case errors.Is(e.Err, ErrUnresolvedKey):
		return fmt.Sprintf("Can't find definition for '%s'!", e.Key)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *Error) Hint() string {
	switch {
	case errors.Is(e.Err, ErrUnknownCode):
		return fmt.Sprintf("Set $code to one of the status codes declared for this operation instead of %s.", e.Code)
	case errors.Is(e.Err, ErrMissingSchema):
		return fmt.Sprintf("Add a schema for %s under response %s, or target another status code with $code.", e.ContentType, e.Code)
	case errors.Is(e.Err, ErrUnresolvedKey):
		return fmt.Sprintf("Check that %q is a property of the response schema, is declared only once, and that its value has the declared type.", e.Key)
	default:
		return ""
	}
}
