package postgresadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SystemClock stamps bundles, bitstreams and outbox rows in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues UUIDv7 ids; outbox rows with equal created_at relay in id order.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate licensing id: %w", err)
	}
	return id.String(), nil
}
