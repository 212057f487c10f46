package authorization

import "errors"

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
