package entities

import (
	"testing"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLicenseFormat(t *testing.T) {
	cases := []struct {
		mime       string
		name       string
		format     string
		storedMime string
	}{
		{"text/xml", BitstreamNameLicenseRDF, FormatRDFXML, MimeTypeRDFXML},
		{"TEXT/RDF", BitstreamNameLicenseRDF, FormatRDFXML, MimeTypeRDFXML},
		{"text/xml; charset=utf-8", BitstreamNameLicenseRDF, FormatRDFXML, MimeTypeRDFXML},
		{"text/html", BitstreamNameLicenseText, FormatLicense, "text/html"},
		{"", BitstreamNameLicenseText, FormatLicense, MimeTypeTextPlain},
	}
	for _, tc := range cases {
		name, format, storedMime := LicenseFormat(tc.mime)
		assert.Equal(t, tc.name, name, tc.mime)
		assert.Equal(t, tc.format, format, tc.mime)
		assert.Equal(t, tc.storedMime, storedMime, tc.mime)
	}
}

func TestItemHasLicense(t *testing.T) {
	item := Item{ItemID: "item-1"}
	assert.False(t, item.HasLicense())

	item.Bundles = []Bundle{{Name: LicenseBundleName}}
	assert.False(t, item.HasLicense(), "empty CC bundle carries no license")

	item.Bundles[0].Bitstreams = []Bitstream{{Name: BitstreamNameLicenseText}}
	assert.True(t, item.HasLicense())

	item.Bundles = []Bundle{{Name: "ORIGINAL", Bitstreams: []Bitstream{{Name: BitstreamNameLicenseRDF}}}}
	assert.False(t, item.HasLicense(), "license bitstreams outside the CC bundle are ignored")
}

func TestParseFieldRef(t *testing.T) {
	ref, err := ParseFieldRef("dc.rights.uri")
	require.NoError(t, err)
	assert.Equal(t, FieldRef{Schema: "dc", Element: "rights", Qualifier: "uri"}, ref)

	for _, bad := range []string{"", "dc", "dc..uri", "dc.rights.*", "a.b.c.d"} {
		_, err := ParseFieldRef(bad)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidMetadataField, bad)
	}
}

func TestLicenseMetadataValueKeyedLookup(t *testing.T) {
	uri, err := NewLicenseMetadataValue(LicenseFieldURI, "dc.rights.uri")
	require.NoError(t, err)
	name, err := NewLicenseMetadataValue(LicenseFieldName, "dc.rights")
	require.NoError(t, err)

	item := Item{Metadata: []MetadataValue{
		uri.Field.NewValue("http://creativecommons.org/licenses/by/4.0/", 1),
		uri.Field.NewValue("http://creativecommons.org/licenses/by-nc/4.0/", 0),
		name.Field.NewValue("Attribution-NonCommercial 4.0", 0),
		name.Field.NewValue("Attribution 4.0", 1),
	}}

	assert.Equal(t, "http://creativecommons.org/licenses/by-nc/4.0/", uri.ItemValue(item))

	value, ok := name.KeyedItemValue(item, uri, "http://creativecommons.org/licenses/by/4.0/")
	require.True(t, ok)
	assert.Equal(t, "Attribution 4.0", value)

	_, ok = name.KeyedItemValue(item, uri, "http://example.org/none")
	assert.False(t, ok)

	remaining, removed := uri.WithoutValue(item, "http://creativecommons.org/licenses/by/4.0/")
	assert.True(t, removed)
	assert.Equal(t, []string{"http://creativecommons.org/licenses/by-nc/4.0/"}, remaining)
}
