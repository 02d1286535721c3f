package services

import (
	"testing"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLicenseFieldDefaults(t *testing.T) {
	field, err := ResolveLicenseField("URI", nil)
	require.NoError(t, err)
	assert.Equal(t, "uri", field.FieldID)
	assert.Equal(t, "dc.rights.uri", field.Field.String())

	field, err = ResolveLicenseField("name", nil)
	require.NoError(t, err)
	assert.Equal(t, "dc.rights", field.Field.String())
	assert.Empty(t, field.Field.Qualifier)
}

func TestResolveLicenseFieldPrefersConfigured(t *testing.T) {
	field, err := ResolveLicenseField("uri", map[string]string{"uri": "dcterms.license"})
	require.NoError(t, err)
	assert.Equal(t, "dcterms", field.Field.Schema)
	assert.Equal(t, "license", field.Field.Element)
}

func TestResolveLicenseFieldRejectsUnknownAndMalformed(t *testing.T) {
	_, err := ResolveLicenseField("jurisdiction", nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnknownLicenseField)

	_, err = ResolveLicenseField("uri", map[string]string{"uri": "dc"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidMetadataField)
}
