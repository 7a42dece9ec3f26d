package model

import "errors"

// Domain errors. Services return these (possibly wrapped); handlers map them
// to HTTP status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyExists     = errors.New("already exists")
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrUnitInactive      = errors.New("unit inactive")
	ErrCaseNotCompleted  = errors.New("case not completed")
	ErrAlreadyRated      = errors.New("feedback already submitted")
	ErrRatingOutOfRange  = errors.New("rating out of range")
	ErrUserSuspended     = errors.New("user suspended")
)
