package queries

import (
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/services"

	"github.com/beevik/etree"
)

// FetchLicenseRDFUseCase reduces a license document to its RDF description.
type FetchLicenseRDFUseCase struct{}

func (FetchLicenseRDFUseCase) Execute(doc *etree.Document) (string, error) {
	return services.FetchLicenseRDF(doc)
}

// ExecuteRaw parses raw XML before reducing it.
func (u FetchLicenseRDFUseCase) ExecuteRaw(raw []byte) (string, error) {
	doc, err := services.ParseLicenseDocument(raw)
	if err != nil {
		return "", err
	}
	return u.Execute(doc)
}
