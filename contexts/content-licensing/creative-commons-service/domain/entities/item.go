package entities

import "time"

type Item struct {
	ItemID       string
	Handle       string
	Name         string
	CollectionID string
	Withdrawn    bool
	Metadata     []MetadataValue
	Bundles      []Bundle
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BundlesByName returns bundles with an exact name match in item order.
func (i Item) BundlesByName(name string) []Bundle {
	var out []Bundle
	for _, bundle := range i.Bundles {
		if bundle.Name == name {
			out = append(out, bundle)
		}
	}
	return out
}

// LicenseBundle returns the first CC-LICENSE bundle.
func (i Item) LicenseBundle() (Bundle, bool) {
	bundles := i.BundlesByName(LicenseBundleName)
	if len(bundles) == 0 {
		return Bundle{}, false
	}
	return bundles[0], true
}

// LicenseBitstream resolves a named bitstream inside the CC-LICENSE bundle.
func (i Item) LicenseBitstream(name string) (Bitstream, bool) {
	for _, bundle := range i.BundlesByName(LicenseBundleName) {
		if bitstream, ok := bundle.BitstreamByName(name); ok {
			return bitstream, true
		}
	}
	return Bitstream{}, false
}

// HasLicense reports whether a CC bundle carries either license representation.
func (i Item) HasLicense() bool {
	if _, ok := i.LicenseBitstream(BitstreamNameLicenseRDF); ok {
		return true
	}
	_, ok := i.LicenseBitstream(BitstreamNameLicenseText)
	return ok
}

// Values returns metadata values for one field ordered by place.
func (i Item) Values(field FieldRef) []MetadataValue {
	var out []MetadataValue
	for _, value := range i.Metadata {
		if field.Matches(value) {
			out = append(out, value)
		}
	}
	sortByPlace(out)
	return out
}
