package services

import (
	"strings"
	"testing"

	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const licenseResponse = `<?xml version="1.0" encoding="UTF-8"?>
<result xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cc="http://creativecommons.org/ns#">
  <license-uri>http://creativecommons.org/licenses/by/4.0/</license-uri>
  <license-name>Attribution 4.0 International</license-name>
  <rdf>
    <rdf:RDF>
      <cc:Work rdf:about="">
        <cc:license rdf:resource="http://creativecommons.org/licenses/by/4.0/"/>
      </cc:Work>
      <cc:License rdf:about="http://creativecommons.org/licenses/by/4.0/">
        <cc:permits rdf:resource="http://creativecommons.org/ns#Reproduction"/>
      </cc:License>
      <rdf:Description rdf:about="urn:unrelated"/>
    </rdf:RDF>
  </rdf>
  <html>&lt;a href="x"&gt;badge&lt;/a&gt;</html>
</result>`

func TestFetchLicenseRDFKeepsOnlyLicenseDescriptions(t *testing.T) {
	doc, err := ParseLicenseDocument([]byte(licenseResponse))
	require.NoError(t, err)

	rdf, err := FetchLicenseRDF(doc)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rdf, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, rdf, "<rdf:RDF")
	assert.Contains(t, rdf, `xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"`)
	assert.Contains(t, rdf, `xmlns:cc="http://creativecommons.org/ns#"`)
	assert.Contains(t, rdf, "<cc:Work")
	assert.Contains(t, rdf, "<cc:License")
	assert.NotContains(t, rdf, "urn:unrelated")
	assert.NotContains(t, rdf, "license-name")

	reparsed, err := ParseLicenseDocument([]byte(rdf))
	require.NoError(t, err)
	assert.Equal(t, "http://creativecommons.org/licenses/by/4.0/", LicenseURI(reparsed))
}

func TestFetchLicenseRDFWithoutRDFElement(t *testing.T) {
	doc, err := ParseLicenseDocument([]byte(`<result><license-uri>x</license-uri></result>`))
	require.NoError(t, err)

	_, err = FetchLicenseRDF(doc)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidLicenseDocument)

	_, err = FetchLicenseRDF(nil)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidLicenseDocument)
}

func TestLicenseURIFallsBackToWorkLink(t *testing.T) {
	doc, err := ParseLicenseDocument([]byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://web.resource.org/cc/">
  <Work rdf:about=""><license rdf:resource="http://creativecommons.org/licenses/by-sa/3.0/"/></Work>
</rdf:RDF>`))
	require.NoError(t, err)
	assert.Equal(t, "http://creativecommons.org/licenses/by-sa/3.0/", LicenseURI(doc))
}

func TestParseLicenseDocumentRejectsGarbage(t *testing.T) {
	_, err := ParseLicenseDocument([]byte("not xml <"))
	assert.ErrorIs(t, err, domainerrors.ErrInvalidLicenseDocument)
}
