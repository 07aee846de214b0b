package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service operation. Handlers map these to
// HTTP status codes, the realtime gateway maps them to dropped frames.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrForbidden  = errors.New("operation not permitted")
	ErrValidation = errors.New("invalid request")
	ErrConflict   = errors.New("conflicting state")
	ErrUpstream   = errors.New("upstream dependency failed")
)

func notFoundError(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func forbiddenError(why string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, why)
}

func validationError(why string) error {
	return fmt.Errorf("%w: %s", ErrValidation, why)
}

func conflictError(why string) error {
	return fmt.Errorf("%w: %s", ErrConflict, why)
}

func upstreamError(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, what, err)
}
