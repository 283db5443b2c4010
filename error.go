package dbuswire

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalid is wrapped by all errors reporting malformed DBus
	// data.
	ErrInvalid = errors.New("invalid DBus data")
	// ErrTooDeep is reported when a value nests arrays and
	// dictionaries more than MaxDepth levels deep.
	ErrTooDeep = errors.New("containers nested too deeply")
)

// ValidationError is the error returned when DBus wire data fails
// validation.
type ValidationError struct {
	// Offset is the position in the buffer at which the problem was
	// found.
	Offset int
	// Reason describes the problem.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid DBus data at offset %d: %s", e.Offset, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

func invalid(pos int, reason string, args ...any) error {
	err := &ValidationError{pos, fmt.Sprintf(reason, args...)}
	debugValidate("%v", err)
	return err
}

// TypeError is the error returned when a value cannot be represented
// in the DBus wire format.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the value isn't representable
	// by DBus.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("dbus cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := "nil"
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}
