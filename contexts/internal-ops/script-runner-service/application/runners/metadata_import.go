package runners

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/domain/services"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"

	"golang.org/x/text/unicode/norm"
)

// MetadataImportConfig is the default registry entry for MetadataImport.
func MetadataImportConfig() entities.ScriptConfiguration {
	return entities.ScriptConfiguration{
		Name:        entities.ScriptMetadataImport,
		Description: "Apply a metadata CSV to existing items",
		Options: []entities.ScriptOption{
			{Name: "dry_run", Description: "Report changes without applying them"},
		},
	}
}

// MetadataImport applies a CSV in the export layout. Each metadata column
// replaces the item's values for that field and language; fields and
// languages absent from the header are left alone. Unknown item ids fail the
// whole run before anything is written.
type MetadataImport struct {
	Catalog ports.ItemCatalog
}

type importRow struct {
	line    int
	itemID  string
	columns map[column][]string
}

type itemChange struct {
	itemID  string
	updates []ports.FieldUpdate
	diffs   []string
}

func (r MetadataImport) Run(ctx context.Context, req ports.RunRequest, output io.Writer, log ports.RunLog) error {
	if len(bytes.TrimSpace(req.Input)) == 0 {
		return fmt.Errorf("%w: empty input", domainerrors.ErrInvalidCSV)
	}
	dryRun := services.ParseBool(req.Parameters["dry_run"])

	columns, rows, err := parseImport(req.Input)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.itemID)
	}
	items, err := r.Catalog.ListItems(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]ports.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ItemID] = item
	}

	var changes []itemChange
	for _, row := range rows {
		item, ok := byID[row.itemID]
		if !ok {
			return fmt.Errorf("%w: line %d: unknown item %q", domainerrors.ErrInvalidCSV, row.line, row.itemID)
		}
		if change := diffItem(item, columns, row); len(change.updates) > 0 {
			changes = append(changes, change)
		}
	}

	for _, change := range changes {
		for _, diff := range change.diffs {
			fmt.Fprintf(output, "%s\t%s\n", change.itemID, diff)
		}
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Catalog.ReplaceMetadata(ctx, change.itemID, change.updates); err != nil {
			return fmt.Errorf("apply metadata to %s: %w", change.itemID, err)
		}
	}

	if dryRun {
		log.Printf("dry run: %d of %d items would change", len(changes), len(rows))
	} else {
		log.Printf("updated %d of %d items", len(changes), len(rows))
	}
	return nil
}

func parseImport(input []byte) ([]column, []importRow, error) {
	reader := csv.NewReader(bytes.NewReader(input))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", domainerrors.ErrInvalidCSV, err)
	}
	if len(header) < 2 ||
		strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")) != columnID ||
		strings.TrimSpace(header[1]) != columnCollection {
		return nil, nil, fmt.Errorf("%w: header must start with id,collection", domainerrors.ErrInvalidCSV)
	}

	columns := make([]column, 0, len(header)-2)
	seen := make(map[column]bool)
	for _, raw := range header[2:] {
		c, err := parseColumn(raw)
		if err != nil {
			return nil, nil, err
		}
		if seen[c] {
			return nil, nil, fmt.Errorf("%w: duplicate column %q", domainerrors.ErrInvalidCSV, c.String())
		}
		seen[c] = true
		columns = append(columns, c)
	}

	var rows []importRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidCSV, err)
		}
		itemID := strings.TrimSpace(record[0])
		if itemID == "" {
			return nil, nil, fmt.Errorf("%w: line %d: missing id", domainerrors.ErrInvalidCSV, line)
		}
		row := importRow{line: line, itemID: itemID, columns: make(map[column][]string, len(columns))}
		for index, c := range columns {
			values := splitCell(record[index+2])
			for i := range values {
				values[i] = norm.NFC.String(values[i])
			}
			row.columns[c] = values
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// diffItem builds the per-field replacement for one row. Values of a field
// in languages not named by the header are kept ahead of the imported ones.
func diffItem(item ports.CatalogItem, columns []column, row importRow) itemChange {
	change := itemChange{itemID: item.ItemID}

	var fields []string
	languages := make(map[string][]column)
	for _, c := range columns {
		if _, ok := languages[c.Field]; !ok {
			fields = append(fields, c.Field)
		}
		languages[c.Field] = append(languages[c.Field], c)
	}

	for _, field := range fields {
		imported := languages[field]
		var current []ports.CatalogValue
		for _, value := range item.Metadata {
			if value.Field() == field {
				current = append(current, value)
			}
		}

		update := ports.FieldUpdate{Field: field}
		for _, value := range current {
			if !slices.Contains(imported, columnOf(value)) {
				update.Values = append(update.Values, value.Value)
				update.Languages = append(update.Languages, value.Language)
			}
		}
		for _, c := range imported {
			for _, value := range row.columns[c] {
				update.Values = append(update.Values, value)
				update.Languages = append(update.Languages, c.Language)
			}
		}

		before := make([]string, 0, len(current))
		languagesBefore := make([]string, 0, len(current))
		for _, value := range current {
			before = append(before, value.Value)
			languagesBefore = append(languagesBefore, value.Language)
		}
		if slices.Equal(before, update.Values) && slices.Equal(languagesBefore, update.Languages) {
			continue
		}
		change.updates = append(change.updates, update)
		change.diffs = append(change.diffs, fmt.Sprintf("%s: %q -> %q", field, before, update.Values))
	}
	return change
}
