package entities

import (
	"sort"
	"strings"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
)

type MetadataValue struct {
	Schema    string
	Element   string
	Qualifier string
	Value     string
	Language  string
	Authority string
	Place     int
}

// FieldRef identifies a metadata field as schema.element[.qualifier].
type FieldRef struct {
	Schema    string
	Element   string
	Qualifier string
}

// ParseFieldRef parses "dc.rights.uri" style names. A qualifier of "*" is
// rejected since license fields always address a single field.
func ParseFieldRef(name string) (FieldRef, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return FieldRef{}, domainerrors.ErrInvalidMetadataField
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" || part == "*" {
			return FieldRef{}, domainerrors.ErrInvalidMetadataField
		}
	}
	ref := FieldRef{Schema: parts[0], Element: parts[1]}
	if len(parts) == 3 {
		ref.Qualifier = parts[2]
	}
	return ref, nil
}

func (f FieldRef) String() string {
	if f.Qualifier == "" {
		return f.Schema + "." + f.Element
	}
	return f.Schema + "." + f.Element + "." + f.Qualifier
}

func (f FieldRef) Matches(value MetadataValue) bool {
	return value.Schema == f.Schema &&
		value.Element == f.Element &&
		value.Qualifier == f.Qualifier
}

func (f FieldRef) NewValue(value string, place int) MetadataValue {
	return MetadataValue{
		Schema:    f.Schema,
		Element:   f.Element,
		Qualifier: f.Qualifier,
		Value:     value,
		Place:     place,
	}
}

func sortByPlace(values []MetadataValue) {
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Place < values[j].Place
	})
}
