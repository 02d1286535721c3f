package creativecommons_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	creativecommons "ccdepot/contexts/content-licensing/creative-commons-service"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/commands"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/queries"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
	httptransport "ccdepot/contexts/content-licensing/creative-commons-service/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const licenseURI = "http://creativecommons.org/licenses/by/4.0/"

const licenseRDF = `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cc="http://creativecommons.org/ns#">
  <cc:License rdf:about="http://creativecommons.org/licenses/by/4.0/"/>
</rdf:RDF>`

const licenseDocument = `<result xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cc="http://creativecommons.org/ns#">
  <license-uri>http://creativecommons.org/licenses/by/4.0/</license-uri>
  <rdf><rdf:RDF><cc:License rdf:about="http://creativecommons.org/licenses/by/4.0/"/><rdf:Description rdf:about="urn:x"/></rdf:RDF></rdf>
</result>`

func seedItems() []entities.Item {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []entities.Item{
		{
			ItemID:       "item-1",
			Handle:       "123456789/1",
			Name:         "Thesis",
			CollectionID: "col-1",
			Metadata: []entities.MetadataValue{
				{Schema: "dc", Element: "title", Value: "Thesis"},
			},
			Bundles: []entities.Bundle{
				{BundleID: "orig-1", ItemID: "item-1", Name: "ORIGINAL"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{ItemID: "item-2", Name: "Dataset", CollectionID: "col-2", CreatedAt: now, UpdatedAt: now},
	}
}

type fakeAuthorizer struct {
	allowed map[string]bool
}

func (f fakeAuthorizer) Authorize(_ context.Context, actorID string, permission string, _ string) error {
	if f.allowed[actorID+"|"+permission] {
		return nil
	}
	return domainerrors.ErrForbidden
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.EventEnvelope
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func queriesContent(actorID string, itemID string) queries.GetLicenseContentQuery {
	return queries.GetLicenseContentQuery{ActorID: actorID, ItemID: itemID}
}

func queriesHas(itemID string) queries.HasLicenseQuery {
	return queries.HasLicenseQuery{ItemID: itemID}
}

func newModule(t *testing.T, settings ports.Settings) creativecommons.Module {
	t.Helper()
	return creativecommons.NewInMemoryModule(seedItems(), settings, nil, nil, nil)
}

func TestSetLicenseRDFReplacesBundle(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	first, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{
		ActorID: "admin", ItemID: "item-1", LicenseRDF: licenseRDF,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BitstreamNameLicenseRDF, first.Bitstream.Name)
	assert.Equal(t, entities.FormatRDFXML, first.Bitstream.Format)
	assert.Equal(t, entities.MimeTypeRDFXML, first.Bitstream.MimeType)
	assert.Equal(t, entities.LicenseBitstreamSource, first.Bitstream.Source)
	assert.Equal(t, int64(len(licenseRDF)), first.Bitstream.SizeBytes)
	assert.Len(t, first.Bitstream.Checksum, 32)
	assert.Equal(t, 0, first.Replaced)

	second, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{
		ActorID: "admin", ItemID: "item-1", LicenseRDF: licenseRDF,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Replaced)

	item, err := module.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, item.BundlesByName(entities.LicenseBundleName), 1)
	assert.Len(t, item.BundlesByName("ORIGINAL"), 1)
	assert.False(t, module.Store.HasObject(first.Bitstream.StorageKey))
	assert.True(t, module.Store.HasObject(second.Bitstream.StorageKey))

	rdf, err := module.Handler.GetContent.RDF(ctx, queriesContent("admin", "item-1"))
	require.NoError(t, err)
	assert.Equal(t, licenseRDF, rdf)

	events := module.Store.OutboxEvents()
	require.Len(t, events, 2)
	assert.Equal(t, ports.LicenseChangedEventType, events[0].EventType)
	assert.Equal(t, "item-1", events[0].PartitionKey)

	var envelope ports.EventEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	assert.Equal(t, ports.LicenseChangedEventType, envelope.EventType)
	assert.Contains(t, string(envelope.Data), licenseURI)
}

func TestSetLicenseMapsMimeTypes(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	result, err := module.Handler.SetLicense.Execute(ctx, commands.SetLicenseCommand{
		ItemID:   "item-1",
		Content:  strings.NewReader(licenseRDF),
		MimeType: "text/xml; charset=utf-8",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BitstreamNameLicenseRDF, result.Bitstream.Name)
	assert.Equal(t, entities.FormatRDFXML, result.Bitstream.Format)

	result, err = module.Handler.SetLicense.Execute(ctx, commands.SetLicenseCommand{
		ItemID:  "item-1",
		Content: strings.NewReader("Attribution 4.0"),
	})
	require.NoError(t, err)
	assert.Equal(t, entities.BitstreamNameLicenseText, result.Bitstream.Name)
	assert.Equal(t, entities.FormatLicense, result.Bitstream.Format)
	assert.Equal(t, entities.MimeTypeTextPlain, result.Bitstream.MimeType)
	assert.Equal(t, 1, result.Replaced)

	hasLicense, err := module.Handler.HasLicense.Execute(ctx, queriesHas("item-1"))
	require.NoError(t, err)
	assert.True(t, hasLicense)

	rdf, err := module.Handler.GetBitstream.RDF(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, rdf.Found)
	text, err := module.Handler.GetBitstream.Text(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, text.Found)
}

func TestRemoveLicenseIsNoOpWithoutBundle(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	result, err := module.Handler.RemoveLicense.Execute(ctx, commands.RemoveLicenseCommand{ItemID: "item-2"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.RemovedBitstreams)
	assert.Empty(t, module.Store.OutboxEvents())

	set, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-2", LicenseRDF: licenseRDF})
	require.NoError(t, err)
	result, err = module.Handler.RemoveLicense.Execute(ctx, commands.RemoveLicenseCommand{ItemID: "item-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RemovedBitstreams)
	assert.False(t, module.Store.HasObject(set.Bitstream.StorageKey))

	hasLicense, err := module.Handler.HasLicense.Execute(ctx, queriesHas("item-2"))
	require.NoError(t, err)
	assert.False(t, hasLicense)

	rdf, err := module.Handler.GetContent.RDF(ctx, queriesContent("", "item-2"))
	require.NoError(t, err)
	assert.Empty(t, rdf)
}

func TestApplyAndRemoveLicenseFields(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	applied, err := module.Handler.ApplyLicenseHandler(ctx, "admin", "item-1", httptransport.ApplyLicenseRequest{
		LicenseName: "Attribution 4.0 International",
		Document:    licenseDocument,
	})
	require.NoError(t, err)
	assert.Equal(t, licenseURI, applied.LicenseURI)
	require.NotNil(t, applied.Bitstream)

	item, err := module.Handler.GetItemHandler(ctx, "admin", "item-1")
	require.NoError(t, err)
	assert.True(t, item.Item.HasLicense)
	assert.Equal(t, licenseURI, item.Item.LicenseURI)

	rdf, err := module.Handler.GetLicenseRDFHandler(ctx, "admin", "item-1")
	require.NoError(t, err)
	assert.NotContains(t, rdf.LicenseRDF, "urn:x")

	removed, err := module.Handler.RemoveLicenseFieldsHandler(ctx, "admin", "item-1")
	require.NoError(t, err)
	assert.Equal(t, licenseURI, removed.LicenseURI)
	assert.True(t, removed.NameRemoved)
	assert.Equal(t, 1, removed.RemovedBitstreams)

	stored, err := module.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, stored.HasLicense())
	for _, value := range stored.Metadata {
		assert.NotEqual(t, "rights", value.Element)
	}
	assert.Len(t, stored.Metadata, 1)
}

func TestRemoveLicenseFieldsKeepsBitstreamsWhenNotConfigured(t *testing.T) {
	settings := creativecommons.DefaultSettings()
	settings.AddBitstream = false
	settings.SetName = false
	module := newModule(t, settings)
	ctx := context.Background()

	_, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	require.NoError(t, err)
	_, err = module.Handler.ApplyLicenseHandler(ctx, "", "item-1", httptransport.ApplyLicenseRequest{
		LicenseURI:  licenseURI,
		LicenseName: "ignored without setname",
	})
	require.NoError(t, err)

	removed, err := module.Handler.RemoveLicenseFieldsHandler(ctx, "", "item-1")
	require.NoError(t, err)
	assert.False(t, removed.NameRemoved)
	assert.Equal(t, 0, removed.RemovedBitstreams)

	hasLicense, err := module.Handler.HasLicense.Execute(ctx, queriesHas("item-1"))
	require.NoError(t, err)
	assert.True(t, hasLicense)
}

func TestDisabledLicensingRejectsMutations(t *testing.T) {
	settings := creativecommons.DefaultSettings()
	settings.Enabled = false
	module := newModule(t, settings)
	ctx := context.Background()

	assert.False(t, module.Handler.IsEnabled.Execute())
	_, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	assert.ErrorIs(t, err, domainerrors.ErrLicensingDisabled)
	_, err = module.Handler.RemoveLicense.Execute(ctx, commands.RemoveLicenseCommand{ItemID: "item-1"})
	assert.ErrorIs(t, err, domainerrors.ErrLicensingDisabled)

	hasLicense, err := module.Handler.HasLicense.Execute(ctx, queriesHas("item-1"))
	require.NoError(t, err)
	assert.False(t, hasLicense)
}

func TestAuthorizationDenial(t *testing.T) {
	authorizer := fakeAuthorizer{allowed: map[string]bool{
		"reader|" + ports.PermissionItemRead:  true,
		"editor|" + ports.PermissionItemRead:  true,
		"editor|" + ports.PermissionItemWrite: true,
	}}
	module := creativecommons.NewInMemoryModule(seedItems(), creativecommons.DefaultSettings(), authorizer, nil, nil)
	ctx := context.Background()

	_, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ActorID: "reader", ItemID: "item-1", LicenseRDF: licenseRDF})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ActorID: "editor", ItemID: "item-1", LicenseRDF: licenseRDF})
	require.NoError(t, err)

	rdf, err := module.Handler.GetContent.RDF(ctx, queriesContent("reader", "item-1"))
	require.NoError(t, err)
	assert.Equal(t, licenseRDF, rdf)
	_, err = module.Handler.GetContent.RDF(ctx, queriesContent("stranger", "item-1"))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, io.Reader) (ports.StoredObject, error) {
	return ports.StoredObject{}, errors.New("disk full")
}

func (failingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk gone")
}

func (failingStore) Delete(context.Context, string) error { return nil }

func TestSetLicenseReportsIOFailure(t *testing.T) {
	base := newModule(t, creativecommons.DefaultSettings())
	module := creativecommons.NewModule(creativecommons.Dependencies{
		Items:       base.Store,
		Bitstreams:  failingStore{},
		Outbox:      base.Store,
		Clock:       base.Store,
		IDGenerator: base.Store,
		Settings:    creativecommons.DefaultSettings(),
	})

	_, err := module.Handler.SetLicenseRDF.Execute(context.Background(), commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	assert.ErrorIs(t, err, domainerrors.ErrBitstreamIO)
	assert.Empty(t, base.Store.OutboxEvents())

	item, err := base.Store.GetItem(context.Background(), "item-1")
	require.NoError(t, err)
	assert.False(t, item.HasLicense())
}

func TestSetLicenseOnMissingItem(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	_, err := module.Handler.SetLicenseRDF.Execute(context.Background(), commands.SetLicenseRDFCommand{ItemID: "missing", LicenseRDF: licenseRDF})
	assert.ErrorIs(t, err, domainerrors.ErrItemNotFound)
}

func TestGetLicenseFieldResolution(t *testing.T) {
	settings := creativecommons.DefaultSettings()
	settings.Fields = map[string]string{entities.LicenseFieldName: "dc.rights.license"}
	module := newModule(t, settings)
	ctx := context.Background()

	uri, err := module.Handler.GetLicenseFieldHandler(ctx, "uri")
	require.NoError(t, err)
	assert.Equal(t, "dc.rights.uri", uri.Field)

	name, err := module.Handler.GetLicenseFieldHandler(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "dc.rights.license", name.Field)

	permission, err := module.Handler.GetLicenseFieldHandler(ctx, "permission")
	require.NoError(t, err)
	assert.Equal(t, "dc.rights.accessRights", permission.Field)

	_, err = module.Handler.GetLicenseFieldHandler(ctx, "bogus")
	assert.ErrorIs(t, err, domainerrors.ErrUnknownLicenseField)

	cached, ok, err := module.Store.GetField(ctx, "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dc.rights.license", cached)
}

func TestOutboxRelayPublishesOnce(t *testing.T) {
	publisher := &recordingPublisher{}
	module := creativecommons.NewInMemoryModule(seedItems(), creativecommons.DefaultSettings(), nil, publisher, nil)
	ctx := context.Background()

	_, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	require.NoError(t, err)

	require.NoError(t, module.Relay.RunOnce(ctx))
	require.NoError(t, module.Relay.RunOnce(ctx))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, ports.LicenseChangedEventType, publisher.events[0].EventType)
	assert.Equal(t, "item-1", publisher.events[0].PartitionKey)

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListItemsPaginates(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	page, err := module.Handler.ListItemsHandler(ctx, "", httptransport.ListItemsRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "item-1", page.Items[0].ItemID)
	require.NotEmpty(t, page.NextCursor)

	next, err := module.Handler.ListItemsHandler(ctx, "", httptransport.ListItemsRequest{Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "item-2", next.Items[0].ItemID)
	assert.Empty(t, next.NextCursor)

	_, err = module.Handler.ListItemsHandler(ctx, "", httptransport.ListItemsRequest{Limit: 500})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidLicenseRequest)
}

type failingUpdates struct {
	ports.ItemRepository
}

func (failingUpdates) UpdateLicense(context.Context, string, ports.LicenseUpdate) ([]entities.Bitstream, error) {
	return nil, errors.New("connection reset")
}

func moduleOver(base creativecommons.Module, items ports.ItemRepository, bitstreams ports.BitstreamStore) creativecommons.Module {
	return creativecommons.NewModule(creativecommons.Dependencies{
		Items:       items,
		Bitstreams:  bitstreams,
		Outbox:      base.Store,
		FieldCache:  base.Store,
		Clock:       base.Store,
		IDGenerator: base.Store,
		Settings:    creativecommons.DefaultSettings(),
	})
}

func TestStoredChecksumMatchesContent(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	result, err := module.Handler.SetLicense.Execute(ctx, commands.SetLicenseCommand{
		ItemID:   "item-1",
		Content:  strings.NewReader("CC BY 4.0 legal code"),
		MimeType: "text/plain",
	})
	require.NoError(t, err)

	bitstream, reader, err := module.Handler.OpenBitstream.Execute(ctx, queries.OpenLicenseBitstreamQuery{
		ItemID: "item-1",
		Name:   entities.BitstreamNameLicenseText,
	})
	require.NoError(t, err)
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	require.NoError(t, err)

	sum := md5.Sum(raw)
	assert.Equal(t, "CC BY 4.0 legal code", string(raw))
	assert.Equal(t, hex.EncodeToString(sum[:]), bitstream.Checksum)
	assert.Equal(t, bitstream.Checksum, result.Bitstream.Checksum)
	assert.Equal(t, int64(len(raw)), bitstream.SizeBytes)
}

type recordingBitstreams struct {
	ports.BitstreamStore
	mu   sync.Mutex
	puts []string
}

func (r *recordingBitstreams) Put(ctx context.Context, key string, content io.Reader) (ports.StoredObject, error) {
	r.mu.Lock()
	r.puts = append(r.puts, key)
	r.mu.Unlock()
	return r.BitstreamStore.Put(ctx, key, content)
}

func TestFailedBundleSwapDeletesNewBytes(t *testing.T) {
	base := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()
	bitstreams := &recordingBitstreams{BitstreamStore: base.Store}
	module := moduleOver(base, failingUpdates{ItemRepository: base.Store}, bitstreams)

	_, err := module.Handler.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{ItemID: "item-1", LicenseRDF: licenseRDF})
	require.ErrorIs(t, err, domainerrors.ErrPersistence)

	require.Len(t, bitstreams.puts, 1)
	assert.False(t, base.Store.HasObject(bitstreams.puts[0]))
	assert.Empty(t, base.Store.OutboxEvents())

	item, err := base.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, item.HasLicense())
}

func TestApplyLicenseLeavesNothingBehindOnStoreFailure(t *testing.T) {
	base := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()
	module := moduleOver(base, base.Store, failingStore{})

	_, err := module.Handler.ApplyLicenseHandler(ctx, "", "item-1", httptransport.ApplyLicenseRequest{
		LicenseName: "Attribution 4.0 International",
		Document:    licenseDocument,
	})
	require.ErrorIs(t, err, domainerrors.ErrBitstreamIO)

	item, err := base.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.False(t, item.HasLicense())
	for _, value := range item.Metadata {
		assert.NotEqual(t, "rights", value.Element)
	}
	assert.Empty(t, base.Store.OutboxEvents())
}

func TestApplyLicenseCommitsFieldsAndBundleAsOneEvent(t *testing.T) {
	module := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	_, err := module.Handler.ApplyLicenseHandler(ctx, "", "item-1", httptransport.ApplyLicenseRequest{
		LicenseName: "Attribution 4.0 International",
		Document:    licenseDocument,
	})
	require.NoError(t, err)
	require.Len(t, module.Store.OutboxEvents(), 1)

	_, err = module.Handler.RemoveLicenseFieldsHandler(ctx, "", "item-1")
	require.NoError(t, err)
	assert.Len(t, module.Store.OutboxEvents(), 2)
}

func TestRemoveLicenseFieldsKeepsEverythingOnPersistenceFailure(t *testing.T) {
	base := newModule(t, creativecommons.DefaultSettings())
	ctx := context.Background()

	applied, err := base.Handler.ApplyLicenseHandler(ctx, "", "item-1", httptransport.ApplyLicenseRequest{
		LicenseName: "Attribution 4.0 International",
		Document:    licenseDocument,
	})
	require.NoError(t, err)
	require.NotNil(t, applied.Bitstream)
	before, err := base.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	stored := before.BundlesByName(entities.LicenseBundleName)[0].Bitstreams[0]

	module := moduleOver(base, failingUpdates{ItemRepository: base.Store}, base.Store)
	_, err = module.Handler.RemoveLicenseFieldsHandler(ctx, "", "item-1")
	require.ErrorIs(t, err, domainerrors.ErrPersistence)

	after, err := base.Store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, after.HasLicense())
	assert.Equal(t, before.Metadata, after.Metadata)
	assert.True(t, base.Store.HasObject(stored.StorageKey))
	assert.Len(t, base.Store.OutboxEvents(), 1)
}

func TestGetLicenseURLPrefersMetadataThenLegacyBitstream(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	items := append(seedItems(), entities.Item{
		ItemID: "item-3",
		Name:   "Legacy deposit",
		Bundles: []entities.Bundle{{
			BundleID: "cc-3",
			ItemID:   "item-3",
			Name:     entities.LicenseBundleName,
			Bitstreams: []entities.Bitstream{{
				BitstreamID: "url-3",
				BundleID:    "cc-3",
				Name:        entities.BitstreamNameLicenseURL,
				StorageKey:  "legacy/item-3/license_url",
			}},
		}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	module := creativecommons.NewInMemoryModule(items, creativecommons.DefaultSettings(), nil, nil, nil)
	ctx := context.Background()
	_, err := module.Store.Put(ctx, "legacy/item-3/license_url", strings.NewReader("http://creativecommons.org/licenses/by-nc/3.0/"))
	require.NoError(t, err)

	legacy, err := module.Handler.GetContent.URL(ctx, queriesContent("", "item-3"))
	require.NoError(t, err)
	assert.Equal(t, "http://creativecommons.org/licenses/by-nc/3.0/", legacy)

	none, err := module.Handler.GetContent.URL(ctx, queriesContent("", "item-2"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = module.Handler.ApplyLicenseHandler(ctx, "", "item-1", httptransport.ApplyLicenseRequest{LicenseURI: licenseURI})
	require.NoError(t, err)
	recorded, err := module.Handler.GetContent.URL(ctx, queriesContent("", "item-1"))
	require.NoError(t, err)
	assert.Equal(t, licenseURI, recorded)
}

func TestConfiguredFieldWinsOverStaleCacheEntry(t *testing.T) {
	settings := creativecommons.DefaultSettings()
	settings.Fields = map[string]string{entities.LicenseFieldURI: "local.license.uri"}
	module := newModule(t, settings)
	ctx := context.Background()
	require.NoError(t, module.Store.SetField(ctx, entities.LicenseFieldURI, "dc.rights.uri"))

	uri, err := module.Handler.GetLicenseFieldHandler(ctx, entities.LicenseFieldURI)
	require.NoError(t, err)
	assert.Equal(t, "local.license.uri", uri.Field)

	cached, ok, err := module.Store.GetField(ctx, entities.LicenseFieldURI)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "local.license.uri", cached)
}

func TestListItemsHidesUnreadableItems(t *testing.T) {
	authorizer := itemScopedAuthorizer{readable: map[string]bool{"item-2": true}}
	module := creativecommons.NewInMemoryModule(seedItems(), creativecommons.DefaultSettings(), authorizer, nil, nil)
	ctx := context.Background()

	page, err := module.Handler.ListItemsHandler(ctx, "reader", httptransport.ListItemsRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "item-2", page.Items[0].ItemID)

	_, err = module.Handler.ListItemsHandler(ctx, "", httptransport.ListItemsRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLicenseStatusChecksPermissionBeforeExistence(t *testing.T) {
	authorizer := itemScopedAuthorizer{readable: map[string]bool{"item-1": true}}
	module := creativecommons.NewInMemoryModule(seedItems(), creativecommons.DefaultSettings(), authorizer, nil, nil)
	ctx := context.Background()

	_, err := module.Handler.GetLicenseStatusHandler(ctx, "reader", "missing")
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	assert.NotErrorIs(t, err, domainerrors.ErrItemNotFound)

	status, err := module.Handler.GetLicenseStatusHandler(ctx, "reader", "item-1")
	require.NoError(t, err)
	assert.False(t, status.HasLicense)
}

type itemScopedAuthorizer struct {
	readable map[string]bool
}

func (a itemScopedAuthorizer) Authorize(_ context.Context, _ string, permission string, itemID string) error {
	if permission == ports.PermissionItemRead && a.readable[itemID] {
		return nil
	}
	return domainerrors.ErrForbidden
}
