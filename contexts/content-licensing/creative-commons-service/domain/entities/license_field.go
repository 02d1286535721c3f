package entities

import (
	"strings"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
)

const (
	LicenseFieldURI        = "uri"
	LicenseFieldName       = "name"
	LicenseFieldPermission = "permission"
)

// LicenseMetadataValue binds a license field id (uri, name, permission) to the
// metadata field configured for it.
type LicenseMetadataValue struct {
	FieldID string
	Field   FieldRef
}

func NewLicenseMetadataValue(fieldID string, fieldName string) (LicenseMetadataValue, error) {
	if strings.TrimSpace(fieldID) == "" {
		return LicenseMetadataValue{}, domainerrors.ErrUnknownLicenseField
	}
	ref, err := ParseFieldRef(fieldName)
	if err != nil {
		return LicenseMetadataValue{}, err
	}
	return LicenseMetadataValue{FieldID: fieldID, Field: ref}, nil
}

// ItemValue returns the first value of the field, or "" when unset.
func (l LicenseMetadataValue) ItemValue(item Item) string {
	values := item.Values(l.Field)
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}

func (l LicenseMetadataValue) ItemValues(item Item) []string {
	values := item.Values(l.Field)
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, value.Value)
	}
	return out
}

// KeyedItemValue returns the value of this field that pairs with key in the
// keyField. Values pair by position; a single value pairs with any key.
func (l LicenseMetadataValue) KeyedItemValue(item Item, keyField LicenseMetadataValue, key string) (string, bool) {
	values := l.ItemValues(item)
	if len(values) == 0 {
		return "", false
	}
	if len(values) == 1 {
		return values[0], true
	}
	for index, candidate := range keyField.ItemValues(item) {
		if candidate == key && index < len(values) {
			return values[index], true
		}
	}
	return "", false
}

// WithoutValue returns the field values remaining after removing every
// occurrence of value. The second result reports whether anything matched.
func (l LicenseMetadataValue) WithoutValue(item Item, value string) ([]string, bool) {
	current := l.ItemValues(item)
	remaining := make([]string, 0, len(current))
	removed := false
	for _, candidate := range current {
		if candidate == value {
			removed = true
			continue
		}
		remaining = append(remaining, candidate)
	}
	return remaining, removed
}
