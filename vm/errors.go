package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category is the error taxonomy of §7: every error the interpreter returns
// belongs to exactly one of these, so a driver can decide whether to halt or
// recover (e.g. a REPL reporting a TypeError and reading the next line)
// without string-matching messages.
type Category byte

const (
	CategoryType Category = iota
	CategoryDomain
	CategoryState
	CategoryResource
	CategoryIO
)

func (c Category) String() string {
	switch c {
	case CategoryType:
		return "TypeError"
	case CategoryDomain:
		return "DomainError"
	case CategoryState:
		return "StateError"
	case CategoryResource:
		return "ResourceError"
	case CategoryIO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// VMError is a categorized error. errors.As(err, *VMError) recovers the
// category; errors.Is still works against whatever cause was wrapped.
type VMError struct {
	Category Category
	cause    error
}

func (e *VMError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.cause)
}

func (e *VMError) Unwrap() error { return e.cause }

func newVMError(cat Category, format string, args ...any) error {
	return &VMError{Category: cat, cause: errors.Errorf(format, args...)}
}

func newTypeError(format string, args ...any) error {
	return newVMError(CategoryType, format, args...)
}

func newDomainError(format string, args ...any) error {
	return newVMError(CategoryDomain, format, args...)
}

func newStateError(format string, args ...any) error {
	return newVMError(CategoryState, format, args...)
}

func newResourceError(format string, args ...any) error {
	return newVMError(CategoryResource, format, args...)
}

func newIOError(cause error, format string, args ...any) error {
	if cause == nil {
		return newVMError(CategoryIO, format, args...)
	}
	return &VMError{Category: CategoryIO, cause: errors.Wrapf(cause, format, args...)}
}

// CategoryOf is a convenience for callers/tests that want to branch on
// category without importing the errors package themselves.
func CategoryOf(err error) (Category, bool) {
	var vmErr *VMError
	if errors.As(err, &vmErr) {
		return vmErr.Category, true
	}
	return 0, false
}
