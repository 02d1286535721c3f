package queries

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/services"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// FieldRegistry memoizes resolved license fields for the life of the process.
// Configuration always decides the field name; the optional shared cache only
// records it for other replicas and is corrected when it disagrees.
type FieldRegistry struct {
	mu       sync.RWMutex
	resolved map[string]entities.LicenseMetadataValue
	settings ports.Settings
	cache    ports.FieldCache
	logger   *slog.Logger
}

func NewFieldRegistry(settings ports.Settings, cache ports.FieldCache, logger *slog.Logger) *FieldRegistry {
	return &FieldRegistry{
		resolved: make(map[string]entities.LicenseMetadataValue),
		settings: settings,
		cache:    cache,
		logger:   application.ResolveLogger(logger),
	}
}

// Field returns the license field for fieldID (uri, name, permission).
func (r *FieldRegistry) Field(ctx context.Context, fieldID string) (entities.LicenseMetadataValue, error) {
	id := strings.ToLower(strings.TrimSpace(fieldID))

	r.mu.RLock()
	field, ok := r.resolved[id]
	r.mu.RUnlock()
	if ok {
		return field, nil
	}

	field, err := services.ResolveLicenseField(id, r.settings.Fields)
	if err != nil {
		return entities.LicenseMetadataValue{}, err
	}
	if r.cache != nil {
		r.publish(ctx, id, field.Field.String())
	}

	r.mu.Lock()
	r.resolved[id] = field
	r.mu.Unlock()
	return field, nil
}

// publish writes fieldName to the shared cache unless it already holds it.
// Cache failures are logged and never fail the lookup.
func (r *FieldRegistry) publish(ctx context.Context, id string, fieldName string) {
	cached, hit, err := r.cache.GetField(ctx, id)
	if err != nil {
		r.logger.Warn("license field cache read failed",
			"event", "cc_field_cache_get_failed",
			"module", application.ModuleName,
			"layer", "application",
			"field_id", id,
			"error", err.Error(),
		)
	}
	if hit && cached == fieldName {
		return
	}
	if hit {
		r.logger.Warn("license field cache disagrees with configuration",
			"event", "cc_field_cache_stale",
			"module", application.ModuleName,
			"layer", "application",
			"field_id", id,
			"cached", cached,
			"configured", fieldName,
		)
	}
	if err := r.cache.SetField(ctx, id, fieldName); err != nil {
		r.logger.Warn("license field cache write failed",
			"event", "cc_field_cache_set_failed",
			"module", application.ModuleName,
			"layer", "application",
			"field_id", id,
			"error", err.Error(),
		)
	}
}

type GetCCFieldUseCase struct {
	Registry *FieldRegistry
}

func (u GetCCFieldUseCase) Execute(ctx context.Context, fieldID string) (entities.LicenseMetadataValue, error) {
	return u.Registry.Field(ctx, fieldID)
}
