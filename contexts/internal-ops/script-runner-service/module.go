package scriptrunner

import (
	"log/slog"

	httpadapter "ccdepot/contexts/internal-ops/script-runner-service/adapters/http"
	"ccdepot/contexts/internal-ops/script-runner-service/adapters/memory"
	"ccdepot/contexts/internal-ops/script-runner-service/application"
	"ccdepot/contexts/internal-ops/script-runner-service/application/runners"
	"ccdepot/contexts/internal-ops/script-runner-service/application/workers"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// Module exposes the script runner. Executor must be shut down by the owner
// of the process lifecycle.
type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Registry *application.Registry
	Executor *workers.Executor
	Store    *memory.Store
}

type Dependencies struct {
	Processes   ports.ProcessRepository
	Catalog     ports.ItemCatalog
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Overrides   ports.RegistryOverrides
	Logger      *slog.Logger
}

// DefaultRegistry registers metadata-import and metadata-export against catalog.
func DefaultRegistry(catalog ports.ItemCatalog) (*application.Registry, error) {
	registry := application.NewRegistry()
	if err := registry.Register(runners.MetadataImportConfig(), runners.MetadataImport{Catalog: catalog}); err != nil {
		return nil, err
	}
	if err := registry.Register(runners.MetadataExportConfig(), runners.MetadataExport{Catalog: catalog}); err != nil {
		return nil, err
	}
	return registry, nil
}

func NewModule(deps Dependencies) (Module, error) {
	registry, err := DefaultRegistry(deps.Catalog)
	if err != nil {
		return Module{}, err
	}
	if err := registry.ApplyOverrides(deps.Overrides); err != nil {
		return Module{}, err
	}
	executor := workers.NewExecutor(workers.ExecutorConfig{
		CorePoolSize:  deps.Overrides.CorePoolSize,
		QueueCapacity: deps.Overrides.QueueCapacity,
	}, deps.Logger)

	service := application.Service{
		Registry:    registry,
		Executor:    executor,
		Processes:   deps.Processes,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service:  service,
		Registry: registry,
		Executor: executor,
	}, nil
}

func NewInMemoryModule(catalog ports.ItemCatalog, authorizer ports.Authorizer, overrides ports.RegistryOverrides, logger *slog.Logger) (Module, error) {
	store := memory.NewStore()
	module, err := NewModule(Dependencies{
		Processes:   store,
		Catalog:     catalog,
		Authorizer:  authorizer,
		Clock:       store,
		IDGenerator: store,
		Overrides:   overrides,
		Logger:      logger,
	})
	if err != nil {
		return Module{}, err
	}
	module.Store = store
	return module, nil
}
