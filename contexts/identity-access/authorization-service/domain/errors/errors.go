package errors

import "errors"

// Input validation.
var (
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrInvalidRoleID     = errors.New("invalid role id")
	ErrInvalidAdminID    = errors.New("invalid admin id")
	ErrInvalidPermission = errors.New("invalid permission")
)

// Role assignment state.
var (
	ErrRoleNotFound        = errors.New("role not found")
	ErrRoleAlreadyAssigned = errors.New("role already assigned")
	ErrRoleNotAssigned     = errors.New("role not assigned")
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
)
