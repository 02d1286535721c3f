package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	creativecommons "ccdepot/contexts/content-licensing/creative-commons-service"
	ccmemory "ccdepot/contexts/content-licensing/creative-commons-service/adapters/memory"
	ccpostgres "ccdepot/contexts/content-licensing/creative-commons-service/adapters/postgres"
	ccredis "ccdepot/contexts/content-licensing/creative-commons-service/adapters/redis"
	ccsqlite "ccdepot/contexts/content-licensing/creative-commons-service/adapters/sqlite"
	ccports "ccdepot/contexts/content-licensing/creative-commons-service/ports"
	authorization "ccdepot/contexts/identity-access/authorization-service"
	authzevents "ccdepot/contexts/identity-access/authorization-service/adapters/events"
	authzmemory "ccdepot/contexts/identity-access/authorization-service/adapters/memory"
	authzpostgres "ccdepot/contexts/identity-access/authorization-service/adapters/postgres"
	authzredis "ccdepot/contexts/identity-access/authorization-service/adapters/redis"
	authzports "ccdepot/contexts/identity-access/authorization-service/ports"
	scriptrunner "ccdepot/contexts/internal-ops/script-runner-service"
	scriptpostgres "ccdepot/contexts/internal-ops/script-runner-service/adapters/postgres"
	"ccdepot/contexts/internal-ops/script-runner-service/adapters/registryfile"
	scriptports "ccdepot/contexts/internal-ops/script-runner-service/ports"
	"ccdepot/internal/platform/config"
	"ccdepot/internal/platform/db"
	"ccdepot/internal/platform/messaging"

	"github.com/redis/go-redis/v9"
)

const moduleName = "internal/app/bootstrap"

// Runtime holds the wired modules and the infrastructure they share.
// Close releases connections; it does not stop the script executor.
type Runtime struct {
	Config        config.Config
	Logger        *slog.Logger
	Bus           *messaging.Bus
	Licensing     creativecommons.Module
	Authorization authorization.Module
	Scripts       scriptrunner.Module

	postgres *db.Postgres
	redis    *redis.Client
	assets   *ccsqlite.BitstreamStore
}

// NewLogger builds the JSON process logger at the configured level.
func NewLogger(cfg config.Config, process string) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", cfg.ServiceName, "process", process)
}

// BuildRuntime connects to the configured backends and wires every module.
// Without POSTGRES_DSN all state lives in process memory.
func BuildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		Bus:    messaging.NewBus(cfg.EventBusBuffer, logger),
	}
	if err := rt.connect(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Authorization = rt.buildAuthorization()
	checker := rt.Authorization.CheckPermission

	licensing, items, err := rt.buildLicensing(licenseAuthorizer{checker: checker})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Licensing = licensing
	if path := strings.TrimSpace(cfg.SeedItemsPath); path != "" {
		count, err := seedItems(ctx, path, items)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		logger.Info("catalog items seeded",
			"event", "bootstrap_items_seeded",
			"module", moduleName,
			"layer", "platform",
			"path", path,
			"items", count,
		)
	}

	scripts, err := rt.buildScripts(scriptAuthorizer{checker: checker}, newCatalogBridge(items))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Scripts = scripts

	logger.Info("runtime wired",
		"event", "bootstrap_runtime_wired",
		"module", moduleName,
		"layer", "platform",
		"postgres", rt.postgres != nil,
		"redis", rt.redis != nil,
		"asset_store", rt.assets != nil,
	)
	return rt, nil
}

// InMemory reports whether module state lives in this process only.
func (rt *Runtime) InMemory() bool {
	return rt.postgres == nil
}

func (rt *Runtime) connect(ctx context.Context) error {
	cfg := rt.Config
	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		pg, err := db.Connect(ctx, dsn, db.ConnectOptions{
			Attempts:     cfg.PostgresRetries,
			Delay:        cfg.PostgresDelay,
			MaxOpenConns: cfg.PostgresMaxConn,
			Logger:       rt.Logger,
		})
		if err != nil {
			return err
		}
		rt.postgres = pg
		if cfg.AutoMigrate {
			if err := pg.Migrate(rt.Logger); err != nil {
				return err
			}
		}
	}

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("ping redis %s: %w", addr, err)
		}
		rt.redis = client
	}

	if path := strings.TrimSpace(cfg.AssetStorePath); path != "" {
		assets, err := ccsqlite.Open(path, rt.Logger)
		if err != nil {
			return err
		}
		rt.assets = assets
	} else if rt.postgres != nil {
		return errors.New("ASSET_STORE_PATH is required when POSTGRES_DSN is set")
	}
	return nil
}

func (rt *Runtime) buildAuthorization() authorization.Module {
	publisher := authzevents.NewPublisher(rt.Bus, rt.Logger)
	if rt.postgres == nil {
		module := authorization.NewInMemoryModule(rt.Config.SeedRoles, publisher, rt.Logger)
		if rt.redis != nil {
			store := module.Store
			module = authorization.NewModule(authorization.Dependencies{
				Repository:         store,
				Idempotency:        store,
				PermissionCache:    authzredis.NewPermissionCache(rt.redis),
				Outbox:             store,
				Publisher:          publisher,
				Dedup:              store,
				Clock:              store,
				IDGenerator:        store,
				IdempotencyTTL:     rt.Config.IdempotencyTTL,
				PermissionCacheTTL: rt.Config.PermissionCacheTTL,
				Logger:             rt.Logger,
			})
			module.Store = store
		}
		return module
	}

	repo := authzpostgres.NewRepository(rt.postgres.DB, rt.Logger)
	var cache authzports.PermissionCache = authzmemory.NewStore(nil)
	if rt.redis != nil {
		cache = authzredis.NewPermissionCache(rt.redis)
	}
	return authorization.NewModule(authorization.Dependencies{
		Repository:         repo,
		Idempotency:        repo,
		PermissionCache:    cache,
		Outbox:             repo,
		Publisher:          publisher,
		Dedup:              repo,
		Clock:              authzpostgres.SystemClock{},
		IDGenerator:        authzpostgres.UUIDGenerator{},
		IdempotencyTTL:     rt.Config.IdempotencyTTL,
		PermissionCacheTTL: rt.Config.PermissionCacheTTL,
		Logger:             rt.Logger,
	})
}

func (rt *Runtime) buildLicensing(authorizer ccports.Authorizer) (creativecommons.Module, catalogStore, error) {
	cfg := rt.Config
	settings := ccports.Settings{
		Enabled:      cfg.CC.Enabled,
		SetName:      cfg.CC.SubmitSetName,
		AddBitstream: cfg.CC.AddBitstream,
		Fields:       cfg.CC.LicenseFields(),
	}
	var fieldCache ccports.FieldCache
	if rt.redis != nil {
		fieldCache = ccredis.NewFieldCache(rt.redis, cfg.FieldCacheTTL)
	}

	if rt.postgres == nil {
		store := ccmemory.NewStore(nil, rt.Logger)
		deps := creativecommons.Dependencies{
			Items:       store,
			Bitstreams:  store,
			Outbox:      store,
			Publisher:   rt.Bus,
			Authorizer:  authorizer,
			FieldCache:  store,
			Clock:       store,
			IDGenerator: store,
			Settings:    settings,
			Logger:      rt.Logger,
		}
		if rt.assets != nil {
			deps.Bitstreams = rt.assets
		}
		if fieldCache != nil {
			deps.FieldCache = fieldCache
		}
		module := creativecommons.NewModule(deps)
		module.Store = store
		return module, store, nil
	}

	repo := ccpostgres.NewRepository(rt.postgres.DB, rt.Logger)
	module := creativecommons.NewModule(creativecommons.Dependencies{
		Items:       repo,
		Bitstreams:  rt.assets,
		Outbox:      repo,
		Publisher:   rt.Bus,
		Authorizer:  authorizer,
		FieldCache:  fieldCache,
		Clock:       ccpostgres.SystemClock{},
		IDGenerator: ccpostgres.UUIDGenerator{},
		Settings:    settings,
		Logger:      rt.Logger,
	})
	return module, repo, nil
}

// catalogStore is implemented by both licensing item stores.
type catalogStore interface {
	itemSource
	itemUpserter
}

func (rt *Runtime) buildScripts(authorizer scriptports.Authorizer, catalog scriptports.ItemCatalog) (scriptrunner.Module, error) {
	var overrides scriptports.RegistryOverrides
	if path := strings.TrimSpace(rt.Config.ScriptsConfigPath); path != "" {
		loaded, err := registryfile.Load(path)
		if err != nil {
			return scriptrunner.Module{}, err
		}
		overrides = loaded
	}

	if rt.postgres == nil {
		return scriptrunner.NewInMemoryModule(catalog, authorizer, overrides, rt.Logger)
	}
	return scriptrunner.NewModule(scriptrunner.Dependencies{
		Processes:   scriptpostgres.NewRepository(rt.postgres.DB),
		Catalog:     catalog,
		Authorizer:  authorizer,
		Clock:       scriptpostgres.SystemClock{},
		IDGenerator: scriptpostgres.UUIDGenerator{},
		Overrides:   overrides,
		Logger:      rt.Logger,
	})
}

// Subscribe attaches in-process consumers to the event bus until ctx ends.
func (rt *Runtime) Subscribe(ctx context.Context) {
	rt.Bus.Subscribe(ctx, authzports.PolicyChangedEventType, "authz-permission-cache-cg", rt.Authorization.Consumer.Handle)
	rt.Bus.Subscribe(ctx, ccports.LicenseChangedEventType, "license-change-log-cg", licenseChangeLogger(rt.Logger))
}

func (rt *Runtime) Close() error {
	var errs []error
	if rt.assets != nil {
		errs = append(errs, rt.assets.Close())
	}
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	return errors.Join(errs...)
}
