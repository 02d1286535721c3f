package valueobjects

import (
	"strings"

	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
)

// UserID is a trimmed, non-empty user identifier.
type UserID string

func NewUserID(v string) (UserID, error) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "", domainerrors.ErrInvalidUserID
	}
	return UserID(trimmed), nil
}

func (u UserID) String() string {
	return string(u)
}
