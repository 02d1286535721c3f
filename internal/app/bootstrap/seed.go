package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ccentities "ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"

	"gopkg.in/yaml.v3"
)

// itemUpserter writes catalog items without touching their bundles.
type itemUpserter interface {
	UpsertItem(ctx context.Context, item ccentities.Item) error
}

type seedFile struct {
	Items []seedItem `yaml:"items"`
}

type seedItem struct {
	ItemID       string      `yaml:"item_id"`
	Handle       string      `yaml:"handle"`
	Name         string      `yaml:"name"`
	CollectionID string      `yaml:"collection_id"`
	Withdrawn    bool        `yaml:"withdrawn"`
	Metadata     []seedValue `yaml:"metadata"`
}

type seedValue struct {
	Field    string `yaml:"field"`
	Value    string `yaml:"value"`
	Language string `yaml:"language"`
}

// parseSeedItems reads a YAML item list such as
//
//	items:
//	  - item_id: item-1
//	    name: Thesis
//	    metadata:
//	      - {field: dc.title, value: Thesis}
func parseSeedItems(raw []byte, now time.Time) ([]ccentities.Item, error) {
	var file seedFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed items: %w", err)
	}

	items := make([]ccentities.Item, 0, len(file.Items))
	seen := make(map[string]bool, len(file.Items))
	for index, entry := range file.Items {
		itemID := strings.TrimSpace(entry.ItemID)
		if itemID == "" {
			return nil, fmt.Errorf("seed item %d: item_id is required", index)
		}
		if seen[itemID] {
			return nil, fmt.Errorf("seed item %s: duplicate item_id", itemID)
		}
		seen[itemID] = true

		places := make(map[string]int)
		metadata := make([]ccentities.MetadataValue, 0, len(entry.Metadata))
		for _, value := range entry.Metadata {
			ref, err := ccentities.ParseFieldRef(value.Field)
			if err != nil {
				return nil, fmt.Errorf("seed item %s: field %q: %w", itemID, value.Field, err)
			}
			field := ref.String()
			metadataValue := ref.NewValue(value.Value, places[field])
			metadataValue.Language = value.Language
			places[field]++
			metadata = append(metadata, metadataValue)
		}

		items = append(items, ccentities.Item{
			ItemID:       itemID,
			Handle:       entry.Handle,
			Name:         entry.Name,
			CollectionID: entry.CollectionID,
			Withdrawn:    entry.Withdrawn,
			Metadata:     metadata,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return items, nil
}

func seedItems(ctx context.Context, path string, target itemUpserter) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed items %s: %w", path, err)
	}
	items, err := parseSeedItems(raw, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := target.UpsertItem(ctx, item); err != nil {
			return 0, fmt.Errorf("seed item %s: %w", item.ItemID, err)
		}
	}
	return len(items), nil
}
