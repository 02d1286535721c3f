package authorization

import (
	"log/slog"
	"time"

	httpadapter "ccdepot/contexts/identity-access/authorization-service/adapters/http"
	"ccdepot/contexts/identity-access/authorization-service/adapters/memory"
	"ccdepot/contexts/identity-access/authorization-service/application/commands"
	"ccdepot/contexts/identity-access/authorization-service/application/queries"
	"ccdepot/contexts/identity-access/authorization-service/application/workers"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
// CheckPermission is also consumed by other contexts through bootstrap adapters.
type Module struct {
	Handler         httpadapter.Handler
	CheckPermission queries.CheckPermissionUseCase
	GrantRole       commands.GrantRoleUseCase
	Relay           workers.OutboxRelay
	Consumer        workers.PolicyChangedConsumer
	Store           *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository         ports.Repository
	Idempotency        ports.IdempotencyStore
	PermissionCache    ports.PermissionCache
	Outbox             ports.OutboxRepository
	Publisher          ports.PolicyChangedPublisher
	Dedup              ports.EventDedupStore
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	IdempotencyTTL     time.Duration
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

// NewModule wires use cases, workers and the transport handler using explicit ports.
func NewModule(deps Dependencies) Module {
	checkPermission := queries.CheckPermissionUseCase{
		Repository:         deps.Repository,
		PermissionCache:    deps.PermissionCache,
		Clock:              deps.Clock,
		PermissionCacheTTL: deps.PermissionCacheTTL,
		Logger:             deps.Logger,
	}
	grantRole := commands.GrantRoleUseCase{
		Repository:      deps.Repository,
		Idempotency:     deps.Idempotency,
		PermissionCache: deps.PermissionCache,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		Logger:          deps.Logger,
	}

	handler := httpadapter.Handler{
		CheckPermission: checkPermission,
		CheckBatch: queries.CheckPermissionsBatchUseCase{
			CheckPermission: checkPermission,
			Logger:          deps.Logger,
		},
		ListRoles: queries.ListRolesUseCase{Repository: deps.Repository},
		ListUserRoles: queries.ListUserRolesUseCase{
			Repository: deps.Repository,
			Clock:      deps.Clock,
		},
		ListPermissions: queries.ListPermissionsUseCase{
			Repository: deps.Repository,
			Clock:      deps.Clock,
		},
		GrantRole: grantRole,
		RevokeRole: commands.RevokeRoleUseCase{
			Repository:      deps.Repository,
			Idempotency:     deps.Idempotency,
			PermissionCache: deps.PermissionCache,
			Clock:           deps.Clock,
			IDGenerator:     deps.IDGenerator,
			IdempotencyTTL:  deps.IdempotencyTTL,
			Logger:          deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler:         handler,
		CheckPermission: checkPermission,
		GrantRole:       grantRole,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: 100,
			Logger:    deps.Logger,
		},
		Consumer: workers.PolicyChangedConsumer{
			Dedup:           deps.Dedup,
			PermissionCache: deps.PermissionCache,
			Clock:           deps.Clock,
			Logger:          deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
// seed maps user ids to a built-in role id.
func NewInMemoryModule(seed map[string]string, publisher ports.PolicyChangedPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:         store,
		Idempotency:        store,
		PermissionCache:    store,
		Outbox:             store,
		Publisher:          publisher,
		Dedup:              store,
		Clock:              store,
		IDGenerator:        store,
		IdempotencyTTL:     7 * 24 * time.Hour,
		PermissionCacheTTL: 5 * time.Minute,
		Logger:             logger,
	})
	module.Store = store
	return module
}
