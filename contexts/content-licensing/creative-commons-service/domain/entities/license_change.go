package entities

import "time"

type LicenseAction string

const (
	LicenseActionSet          LicenseAction = "set"
	LicenseActionRemoved      LicenseAction = "removed"
	LicenseActionFieldsRemove LicenseAction = "fields_removed"
	LicenseActionApplied      LicenseAction = "applied"
)

// FieldChange replaces every value of one metadata field.
type FieldChange struct {
	Field  FieldRef
	Values []string
	// Languages is optional and parallel to Values.
	Languages []string
}

// ValueAt builds the metadata value stored at place.
func (c FieldChange) ValueAt(place int) MetadataValue {
	value := c.Field.NewValue(c.Values[place], place)
	if place < len(c.Languages) {
		value.Language = c.Languages[place]
	}
	return value
}

// LicenseChange is the outbound record written with each license mutation.
type LicenseChange struct {
	EventID    string
	ItemID     string
	ActorID    string
	Action     LicenseAction
	LicenseURI string
	OccurredAt time.Time
}
