package edom

import (
	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/vdom"
)

// ContractViolation is the panic value raised inside a pass when the render
// function breaks the shape contract. Passes recover it and return its Err.
type ContractViolation = vdom.Violation

// Sentinel errors. They match by code with errors.Is.
var (
	// ErrAborted is returned by every pass after a contract violation.
	ErrAborted = errs.New("E120")

	// ErrReentrantRender is returned when Update or Dispatch is called from
	// inside a render function.
	ErrReentrantRender = errs.New("E108")
)
