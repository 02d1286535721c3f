package services

import (
	"strings"

	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
)

// DefaultLicenseFields maps license field ids to their default metadata fields.
var DefaultLicenseFields = map[string]string{
	entities.LicenseFieldURI:        "dc.rights.uri",
	entities.LicenseFieldName:       "dc.rights",
	entities.LicenseFieldPermission: "dc.rights.accessRights",
}

// ResolveLicenseField builds the license field for fieldID, preferring the
// configured metadata field name over the default.
func ResolveLicenseField(fieldID string, configured map[string]string) (entities.LicenseMetadataValue, error) {
	id := strings.ToLower(strings.TrimSpace(fieldID))
	name := strings.TrimSpace(configured[id])
	if name == "" {
		name = DefaultLicenseFields[id]
	}
	if name == "" {
		return entities.LicenseMetadataValue{}, domainerrors.ErrUnknownLicenseField
	}
	return entities.NewLicenseMetadataValue(id, name)
}
