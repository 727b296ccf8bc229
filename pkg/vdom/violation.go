package vdom

import (
	"fmt"

	errs "github.com/edom-dev/edom/internal/errors"
)

// Violation is the panic value raised for a broken render contract.
type Violation struct {
	Err *errs.Error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return v.Err.FormatCompact()
}

// Unwrap returns the coded error.
func (v *Violation) Unwrap() error {
	return v.Err
}

// Code returns the violation's error code.
func (v *Violation) Code() string {
	return v.Err.Code
}

// Violate panics with a *Violation for code. el may be nil.
func Violate(code string, el *Element, format string, args ...any) {
	err := errs.New(code).WithDetail(fmt.Sprintf(format, args...))
	if el != nil {
		err.WithElement(el.Name, el.UID)
	}
	panic(&Violation{Err: err})
}
