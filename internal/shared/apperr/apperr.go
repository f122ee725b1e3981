package apperr

import "errors"

// Sentinel errors shared by all services. Wrap with fmt.Errorf("%w: ...")
// and test with errors.Is at the handler or transport edge.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)
