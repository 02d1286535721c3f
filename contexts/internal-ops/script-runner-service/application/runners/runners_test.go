package runners

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	items   map[string]ports.CatalogItem
	applied map[string][]ports.FieldUpdate
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[string]ports.CatalogItem{
			"item-1": {
				ItemID:       "item-1",
				CollectionID: "col-a",
				Metadata: []ports.CatalogValue{
					{Schema: "dc", Element: "title", Value: "First"},
					{Schema: "dc", Element: "subject", Language: "en", Value: "maps"},
					{Schema: "dc", Element: "subject", Language: "en", Value: "rivers"},
					{Schema: "dc", Element: "subject", Language: "de", Value: "Karten"},
				},
			},
			"item-2": {
				ItemID:       "item-2",
				CollectionID: "col-b",
				Metadata: []ports.CatalogValue{
					{Schema: "dc", Element: "title", Value: "Second"},
					{Schema: "dc", Element: "rights", Qualifier: "uri", Value: "http://creativecommons.org/licenses/by/4.0/"},
				},
			},
		},
		applied: make(map[string][]ports.FieldUpdate),
	}
}

func (c *fakeCatalog) ListItems(_ context.Context, itemIDs []string) ([]ports.CatalogItem, error) {
	var out []ports.CatalogItem
	if len(itemIDs) == 0 {
		for _, item := range c.items {
			out = append(out, item)
		}
		return out, nil
	}
	for _, id := range itemIDs {
		if item, ok := c.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ReplaceMetadata(_ context.Context, itemID string, updates []ports.FieldUpdate) error {
	c.applied[itemID] = append(c.applied[itemID], updates...)
	return nil
}

type lines []string

func (l *lines) Printf(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func TestMetadataExportWritesSortedColumns(t *testing.T) {
	var out bytes.Buffer
	var log lines
	err := MetadataExport{Catalog: newCatalog()}.Run(context.Background(), ports.RunRequest{}, &out, &log)
	require.NoError(t, err)

	expected := "id,collection,dc.rights.uri,dc.subject[de],dc.subject[en],dc.title\n" +
		"item-1,col-a,,Karten,maps||rivers,First\n" +
		"item-2,col-b,http://creativecommons.org/licenses/by/4.0/,,,Second\n"
	assert.Equal(t, expected, out.String())
	assert.Equal(t, lines{"exported 2 items with 4 metadata columns"}, log)
}

func TestMetadataExportFilters(t *testing.T) {
	var out bytes.Buffer
	var log lines
	err := MetadataExport{Catalog: newCatalog()}.Run(context.Background(), ports.RunRequest{
		Parameters: map[string]string{"collection": "col-b"},
	}, &out, &log)
	require.NoError(t, err)
	assert.Equal(t, "id,collection,dc.rights.uri,dc.title\nitem-2,col-b,http://creativecommons.org/licenses/by/4.0/,Second\n", out.String())

	out.Reset()
	err = MetadataExport{Catalog: newCatalog()}.Run(context.Background(), ports.RunRequest{
		Parameters: map[string]string{"item_ids": "item-1"},
	}, &out, &log)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "id,collection,dc.subject[de]"))
}

func TestMetadataImportReplacesPerColumn(t *testing.T) {
	catalog := newCatalog()
	input := "id,collection,dc.subject[en],dc.title\n" +
		"item-1,col-a,oceans||café,First\n" +
		"item-2,col-b,,Second\n"
	var out bytes.Buffer
	var log lines

	err := MetadataImport{Catalog: catalog}.Run(context.Background(), ports.RunRequest{Input: []byte(input)}, &out, &log)
	require.NoError(t, err)

	require.Contains(t, catalog.applied, "item-1")
	assert.NotContains(t, catalog.applied, "item-2")
	updates := catalog.applied["item-1"]
	require.Len(t, updates, 1)
	assert.Equal(t, "dc.subject", updates[0].Field)
	assert.Equal(t, []string{"Karten", "oceans", "café"}, updates[0].Values)
	assert.Equal(t, []string{"de", "en", "en"}, updates[0].Languages)
	assert.Contains(t, out.String(), "item-1\tdc.subject:")
	assert.Equal(t, lines{"updated 1 of 2 items"}, log)
}

func TestMetadataImportDryRunAppliesNothing(t *testing.T) {
	catalog := newCatalog()
	input := "id,collection,dc.title\nitem-2,col-b,Renamed\n"
	var out bytes.Buffer
	var log lines

	err := MetadataImport{Catalog: catalog}.Run(context.Background(), ports.RunRequest{
		Input:      []byte(input),
		Parameters: map[string]string{"dry_run": "true"},
	}, &out, &log)
	require.NoError(t, err)
	assert.Empty(t, catalog.applied)
	assert.Contains(t, out.String(), "item-2\tdc.title: [\"Second\"] -> [\"Renamed\"]")
	assert.Equal(t, lines{"dry run: 1 of 1 items would change"}, log)
}

func TestMetadataImportRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"bad header":     "key,collection\nitem-1,col-a\n",
		"bad column":     "id,collection,title\nitem-1,col-a,x\n",
		"duplicate":      "id,collection,dc.title,dc.title\nitem-1,col-a,x,y\n",
		"unknown item":   "id,collection,dc.title\nitem-9,col-a,x\n",
		"missing id":     "id,collection,dc.title\n,col-a,x\n",
		"ragged row":     "id,collection,dc.title\nitem-1,col-a\n",
		"open language":  "id,collection,dc.title[en\nitem-1,col-a,x\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			catalog := newCatalog()
			var out bytes.Buffer
			var log lines
			err := MetadataImport{Catalog: catalog}.Run(context.Background(), ports.RunRequest{Input: []byte(input)}, &out, &log)
			require.ErrorIs(t, err, domainerrors.ErrInvalidCSV)
			assert.Empty(t, catalog.applied)
		})
	}
}
