package entities

import (
	"strings"
	"time"
)

const (
	// LicenseBundleName is the bundle holding Creative Commons license bitstreams.
	LicenseBundleName = "CC-LICENSE"

	BitstreamNameLicenseRDF  = "license_rdf"
	BitstreamNameLicenseText = "license_text"
	// BitstreamNameLicenseURL is only read; new licenses keep the URI in metadata.
	BitstreamNameLicenseURL = "license_url"

	LicenseBitstreamSource = "org.dspace.license.CreativeCommons"

	FormatRDFXML  = "RDF XML"
	FormatLicense = "License"

	MimeTypeRDFXML    = "application/rdf+xml"
	MimeTypeTextPlain = "text/plain"
)

type Bundle struct {
	BundleID   string
	ItemID     string
	Name       string
	Bitstreams []Bitstream
}

func (b Bundle) BitstreamByName(name string) (Bitstream, bool) {
	for _, bitstream := range b.Bitstreams {
		if bitstream.Name == name {
			return bitstream, true
		}
	}
	return Bitstream{}, false
}

type Bitstream struct {
	BitstreamID string
	BundleID    string
	Name        string
	Source      string
	Format      string
	MimeType    string
	SizeBytes   int64
	Checksum    string
	StorageKey  string
	CreatedAt   time.Time
}

// LicenseFormat maps an incoming license mime type to the bitstream name,
// registry format and stored mime type used in the CC bundle.
func LicenseFormat(mimeType string) (name string, format string, storedMime string) {
	value := strings.ToLower(strings.TrimSpace(mimeType))
	if semi := strings.Index(value, ";"); semi >= 0 {
		value = strings.TrimSpace(value[:semi])
	}
	switch value {
	case "text/xml", "text/rdf", MimeTypeRDFXML:
		return BitstreamNameLicenseRDF, FormatRDFXML, MimeTypeRDFXML
	case "":
		return BitstreamNameLicenseText, FormatLicense, MimeTypeTextPlain
	default:
		return BitstreamNameLicenseText, FormatLicense, value
	}
}
