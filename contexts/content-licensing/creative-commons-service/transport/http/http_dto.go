package httptransport

type MetadataValueDTO struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	Place    int    `json:"place"`
}

type BitstreamDTO struct {
	BitstreamID string `json:"bitstream_id"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Format      string `json:"format"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Checksum    string `json:"checksum"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type BundleDTO struct {
	BundleID   string         `json:"bundle_id"`
	Name       string         `json:"name"`
	Bitstreams []BitstreamDTO `json:"bitstreams"`
}

type ItemDTO struct {
	ItemID       string             `json:"item_id"`
	Handle       string             `json:"handle,omitempty"`
	Name         string             `json:"name"`
	CollectionID string             `json:"collection_id,omitempty"`
	Withdrawn    bool               `json:"withdrawn"`
	HasLicense   bool               `json:"has_license"`
	LicenseURI   string             `json:"license_uri,omitempty"`
	Metadata     []MetadataValueDTO `json:"metadata,omitempty"`
	Bundles      []BundleDTO        `json:"bundles,omitempty"`
	UpdatedAt    string             `json:"updated_at,omitempty"`
}

type ListItemsRequest struct {
	CollectionID string `json:"collection_id,omitempty"`
	LicensedOnly bool   `json:"licensed_only,omitempty"`
	Cursor       string `json:"cursor,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type ListItemsResponse struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type GetItemResponse struct {
	Item ItemDTO `json:"item"`
}

type LicenseStatusResponse struct {
	ItemID     string        `json:"item_id"`
	Enabled    bool          `json:"enabled"`
	HasLicense bool          `json:"has_license"`
	LicenseURL string        `json:"license_url,omitempty"`
	RDF        *BitstreamDTO `json:"rdf_bitstream,omitempty"`
	Text       *BitstreamDTO `json:"text_bitstream,omitempty"`
}

type LicenseRDFResponse struct {
	ItemID     string `json:"item_id"`
	LicenseRDF string `json:"license_rdf"`
}

type SetLicenseResponse struct {
	ItemID    string       `json:"item_id"`
	Bitstream BitstreamDTO `json:"bitstream"`
	Replaced  int          `json:"replaced"`
}

type SetLicenseRDFRequest struct {
	LicenseRDF string `json:"license_rdf"`
}

type RemoveLicenseResponse struct {
	ItemID            string `json:"item_id"`
	RemovedBitstreams int    `json:"removed_bitstreams"`
}

type ApplyLicenseRequest struct {
	LicenseURI  string `json:"license_uri"`
	LicenseName string `json:"license_name,omitempty"`
	Document    string `json:"document,omitempty"`
}

type ApplyLicenseResponse struct {
	ItemID     string        `json:"item_id"`
	LicenseURI string        `json:"license_uri"`
	Bitstream  *BitstreamDTO `json:"bitstream,omitempty"`
}

type RemoveLicenseFieldsResponse struct {
	ItemID            string `json:"item_id"`
	LicenseURI        string `json:"license_uri,omitempty"`
	NameRemoved       bool   `json:"name_removed"`
	RemovedBitstreams int    `json:"removed_bitstreams"`
}

type LicenseFieldResponse struct {
	FieldID string `json:"field_id"`
	Field   string `json:"field"`
}

type FetchLicenseRDFRequest struct {
	Document string `json:"document"`
}

type FetchLicenseRDFResponse struct {
	LicenseRDF string `json:"license_rdf"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
