package domain

import "errors"

var (
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidUserID      = errors.New("invalid_user_id")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserExists         = errors.New("user_already_exists")
	ErrInvalidAdminKey    = errors.New("invalid_admin_registration_key")
	ErrAdminLimitReached  = errors.New("admin_registration_limit_reached")
	ErrCannotDeleteSelf   = errors.New("cannot_delete_self")
	ErrUserHasDependents  = errors.New("user_has_dependents")
)
