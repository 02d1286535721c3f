package postgresadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator issues time-ordered UUIDv7 values so assignment and outbox
// ids sort by creation.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate authz id: %w", err)
	}
	return id.String(), nil
}
