package runners

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	"ccdepot/contexts/internal-ops/script-runner-service/domain/services"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// MetadataExportConfig is the default registry entry for MetadataExport.
func MetadataExportConfig() entities.ScriptConfiguration {
	return entities.ScriptConfiguration{
		Name:        entities.ScriptMetadataExport,
		Description: "Export item metadata as CSV",
		Options: []entities.ScriptOption{
			{Name: "item_ids", Description: "Comma separated item ids; all items when empty"},
			{Name: "collection", Description: "Only export items of this collection"},
		},
	}
}

// MetadataExport writes id,collection,<field[lang]>... rows for catalog items.
type MetadataExport struct {
	Catalog ports.ItemCatalog
}

func (r MetadataExport) Run(ctx context.Context, req ports.RunRequest, output io.Writer, log ports.RunLog) error {
	items, err := r.Catalog.ListItems(ctx, services.SplitList(req.Parameters["item_ids"]))
	if err != nil {
		return err
	}
	if collection := req.Parameters["collection"]; collection != "" {
		filtered := items[:0:0]
		for _, item := range items {
			if item.CollectionID == collection {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })

	seen := make(map[column]bool)
	var columns []column
	for _, item := range items {
		for _, value := range item.Metadata {
			c := columnOf(value)
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	sortColumns(columns)

	writer := csv.NewWriter(output)
	header := []string{columnID, columnCollection}
	for _, c := range columns {
		header = append(header, c.String())
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := make(map[column][]string)
		for _, value := range item.Metadata {
			c := columnOf(value)
			values[c] = append(values[c], value.Value)
		}
		row := []string{item.ItemID, item.CollectionID}
		for _, c := range columns {
			row = append(row, strings.Join(values[c], valueSeparator))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	log.Printf("exported %d items with %d metadata columns", len(items), len(columns))
	return nil
}
