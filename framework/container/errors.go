package container

import (
	"errors"
	"fmt"
)

var (
	// ErrAbsent matches AbsentTypeError.
	ErrAbsent = errors.New("container: absent")
	// ErrNotInstantiable matches NotInstantiableError.
	ErrNotInstantiable = errors.New("container: not instantiable")
	// ErrMethodNotFound matches MethodNotFoundError.
	ErrMethodNotFound = errors.New("container: method not found")
)

// AbsentTypeError reports an identifier that is neither bound nor a
// registered type.
type AbsentTypeError struct {
	ID string
}

func (e *AbsentTypeError) Error() string {
	return fmt.Sprintf("container: [%s] is neither bound nor a registered type", e.ID)
}

func (e *AbsentTypeError) Is(target error) bool { return target == ErrAbsent }

// NotInstantiableError reports a registered type that cannot be built, such
// as an interface.
type NotInstantiableError struct {
	Type string
}

func (e *NotInstantiableError) Error() string {
	return fmt.Sprintf("container: type [%s] is not instantiable", e.Type)
}

func (e *NotInstantiableError) Is(target error) bool { return target == ErrNotInstantiable }

// ResolutionError wraps a failure while building ID.
type ResolutionError struct {
	ID  string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: resolving [%s]: %v", e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// MethodNotFoundError is returned by GetMethod when the resolved value has no
// such method.
type MethodNotFoundError struct {
	Type   string
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("container: method %s does not exist on [%s]", e.Method, e.Type)
}

func (e *MethodNotFoundError) Is(target error) bool { return target == ErrMethodNotFound }
