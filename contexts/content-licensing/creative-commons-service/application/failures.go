package application

import (
	"context"
	"errors"
	"strings"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// passthrough errors already describe the outcome and are not reclassified.
var passthrough = []error{
	domainerrors.ErrItemNotFound,
	domainerrors.ErrBitstreamNotFound,
	domainerrors.ErrInvalidLicenseRequest,
	domainerrors.ErrInvalidLicenseDocument,
	domainerrors.ErrLicensingDisabled,
	domainerrors.ErrForbidden,
	domainerrors.ErrBitstreamIO,
	domainerrors.ErrPersistence,
	context.Canceled,
	context.DeadlineExceeded,
}

// PersistenceFailure tags a repository error as a persistence failure.
func PersistenceFailure(err error) error {
	return classify(domainerrors.ErrPersistence, err)
}

// IOFailure tags a bitstream store error as an i/o failure.
func IOFailure(err error) error {
	return classify(domainerrors.ErrBitstreamIO, err)
}

func classify(class error, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range passthrough {
		if errors.Is(err, known) {
			return err
		}
	}
	return errors.Join(class, err)
}

// Authorize checks permission for actorID on itemID. A nil authorizer means
// the caller runs in a trusted system context. Lookup failures deny.
func Authorize(
	ctx context.Context,
	authorizer ports.Authorizer,
	actorID string,
	permission string,
	itemID string,
) error {
	if authorizer == nil {
		return nil
	}
	if strings.TrimSpace(actorID) == "" {
		return domainerrors.ErrForbidden
	}
	err := authorizer.Authorize(ctx, actorID, permission, itemID)
	if err == nil || errors.Is(err, domainerrors.ErrForbidden) {
		return err
	}
	return errors.Join(domainerrors.ErrForbidden, err)
}
