package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is matched by every ParameterError.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("parse error")
)

// ParameterError reports a single input field that cannot be used by the formulas.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func invalid(field string, value float64, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}

// ParseError reports a token of an MDE list that is not a decimal number.
type ParseError struct {
	Position int // 1-based index among non-empty tokens
	Token    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("MDE value %d %q is not a number", e.Position, e.Token)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// FieldError is one rejected input field with a human readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors flattens err into the per-field problems it carries, in the
// order they were reported. Errors that are not tied to a field are skipped.
func FieldErrors(err error) []FieldError {
	var out []FieldError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		switch e := err.(type) {
		case *ParameterError:
			out = append(out, FieldError{Field: e.Field, Message: e.Error()})
			return
		case *ParseError:
			out = append(out, FieldError{Field: "mde", Message: e.Error()})
			return
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return out
}

// Fields returns the names of all fields rejected in err.
func Fields(err error) []string {
	var fields []string
	for _, fe := range FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	return fields
}
