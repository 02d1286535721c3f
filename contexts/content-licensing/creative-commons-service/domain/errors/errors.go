package errors

import "errors"

var (
	ErrItemNotFound           = errors.New("item not found")
	ErrBitstreamNotFound      = errors.New("bitstream not found")
	ErrInvalidLicenseRequest  = errors.New("invalid license request")
	ErrInvalidLicenseDocument = errors.New("license document has no rdf:RDF element")
	ErrUnknownLicenseField    = errors.New("unknown license field")
	ErrInvalidMetadataField   = errors.New("invalid metadata field")
	ErrLicensingDisabled      = errors.New("creative commons licensing is disabled")
	ErrRepositoryInvariant    = errors.New("repository invariant violated")
)

// Failure classes reported to callers. Use cases join one of these with the
// underlying cause so both remain visible to errors.Is.
var (
	ErrBitstreamIO = errors.New("bitstream i/o failure")
	ErrPersistence = errors.New("persistence failure")
	ErrForbidden   = errors.New("forbidden")
)
