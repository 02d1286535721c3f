package runners

import (
	"fmt"
	"sort"
	"strings"

	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

const (
	columnID         = "id"
	columnCollection = "collection"
	valueSeparator   = "||"
)

// column is one metadata column: a field with an optional language tag,
// written as schema.element.qualifier[lang].
type column struct {
	Field    string
	Language string
}

func (c column) String() string {
	if c.Language == "" {
		return c.Field
	}
	return c.Field + "[" + c.Language + "]"
}

func columnOf(value ports.CatalogValue) column {
	return column{Field: value.Field(), Language: value.Language}
}

func parseColumn(header string) (column, error) {
	header = strings.TrimSpace(header)
	c := column{Field: header}
	if open := strings.Index(header, "["); open >= 0 {
		if !strings.HasSuffix(header, "]") {
			return column{}, fmt.Errorf("%w: malformed column %q", domainerrors.ErrInvalidCSV, header)
		}
		c.Field = header[:open]
		c.Language = header[open+1 : len(header)-1]
	}
	parts := strings.Split(c.Field, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return column{}, fmt.Errorf("%w: column %q is not schema.element[.qualifier]", domainerrors.ErrInvalidCSV, header)
	}
	for _, part := range parts {
		if part == "" {
			return column{}, fmt.Errorf("%w: column %q has an empty part", domainerrors.ErrInvalidCSV, header)
		}
	}
	return c, nil
}

func sortColumns(columns []column) {
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].String() < columns[j].String()
	})
}

func splitCell(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, valueSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
