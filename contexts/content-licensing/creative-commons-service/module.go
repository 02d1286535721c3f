package creativecommons

import (
	"log/slog"
	"time"

	httpadapter "ccdepot/contexts/content-licensing/creative-commons-service/adapters/http"
	"ccdepot/contexts/content-licensing/creative-commons-service/adapters/memory"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/commands"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/queries"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/workers"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// Module is the creative commons composition surface. Runtime wiring consumes
// Handler and Relay; Store is set only for in-memory wiring.
type Module struct {
	Handler httpadapter.Handler
	Fields  *queries.FieldRegistry
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Items       ports.ItemRepository
	Bitstreams  ports.BitstreamStore
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Authorizer  ports.Authorizer
	FieldCache  ports.FieldCache
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Settings    ports.Settings
	EventTopic  string
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

// NewModule wires creative commons use cases against explicit ports.
func NewModule(deps Dependencies) Module {
	fields := queries.NewFieldRegistry(deps.Settings, deps.FieldCache, deps.Logger)

	setLicenseRDF := commands.SetLicenseRDFUseCase{
		Items:       deps.Items,
		Bitstreams:  deps.Bitstreams,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Settings:    deps.Settings,
		Logger:      deps.Logger,
	}
	setLicense := commands.SetLicenseUseCase{
		Items:       deps.Items,
		Bitstreams:  deps.Bitstreams,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Settings:    deps.Settings,
		Logger:      deps.Logger,
	}
	removeLicense := commands.RemoveLicenseUseCase{
		Items:       deps.Items,
		Bitstreams:  deps.Bitstreams,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Settings:    deps.Settings,
		Logger:      deps.Logger,
	}
	removeFields := commands.RemoveLicenseFieldsUseCase{
		Items:       deps.Items,
		Bitstreams:  deps.Bitstreams,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Settings:    deps.Settings,
		Logger:      deps.Logger,
	}
	applyLicense := commands.ApplyLicenseUseCase{
		Items:         deps.Items,
		Authorizer:    deps.Authorizer,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		Settings:      deps.Settings,
		SetLicenseRDF: setLicenseRDF,
		Logger:        deps.Logger,
	}

	handler := httpadapter.Handler{
		IsEnabled:  queries.IsEnabledUseCase{Settings: deps.Settings},
		HasLicense: queries.HasLicenseUseCase{Items: deps.Items, Logger: deps.Logger},
		GetItem: queries.GetItemUseCase{
			Items:      deps.Items,
			Authorizer: deps.Authorizer,
			Fields:     fields,
			Logger:     deps.Logger,
		},
		ListItems: queries.ListItemsUseCase{
			Items:      deps.Items,
			Authorizer: deps.Authorizer,
			Logger:     deps.Logger,
		},
		GetBitstream: queries.GetLicenseBitstreamUseCase{Items: deps.Items, Logger: deps.Logger},
		OpenBitstream: queries.OpenLicenseBitstreamUseCase{
			Items:      deps.Items,
			Bitstreams: deps.Bitstreams,
			Authorizer: deps.Authorizer,
			Logger:     deps.Logger,
		},
		GetContent: queries.GetLicenseContentUseCase{
			Items:      deps.Items,
			Bitstreams: deps.Bitstreams,
			Authorizer: deps.Authorizer,
			Fields:     fields,
			Logger:     deps.Logger,
		},
		GetCCField:          queries.GetCCFieldUseCase{Registry: fields},
		SetLicenseRDF:       setLicenseRDF,
		SetLicense:          setLicense,
		RemoveLicense:       removeLicense,
		RemoveLicenseFields: removeFields,
		ApplyLicense:        applyLicense,
		Logger:              deps.Logger,
	}

	topic := deps.EventTopic
	if topic == "" {
		topic = ports.LicenseChangedEventType
	}
	relay := workers.OutboxRelay{
		Outbox:     deps.Outbox,
		Publisher:  deps.Publisher,
		Clock:      deps.Clock,
		Topic:      topic,
		BatchSize:  100,
		RetryDelay: deps.RetryDelay,
		Logger:     deps.Logger,
	}

	return Module{Handler: handler, Fields: fields, Relay: relay}
}

// NewInMemoryModule wires the module against the in-memory store. A nil
// authorizer runs every call as a trusted system context.
func NewInMemoryModule(
	seedItems []entities.Item,
	settings ports.Settings,
	authorizer ports.Authorizer,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seedItems, logger)
	module := NewModule(Dependencies{
		Items:       store,
		Bitstreams:  store,
		Outbox:      store,
		Publisher:   publisher,
		Authorizer:  authorizer,
		FieldCache:  store,
		Clock:       store,
		IDGenerator: store,
		Settings:    settings,
		RetryDelay:  10 * time.Millisecond,
		Logger:      logger,
	})
	module.Store = store
	return module
}

// DefaultSettings enables licensing with bitstream storage and name tracking.
func DefaultSettings() ports.Settings {
	return ports.Settings{
		Enabled:      true,
		SetName:      true,
		AddBitstream: true,
	}
}
