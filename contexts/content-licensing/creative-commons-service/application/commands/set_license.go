package commands

import (
	"context"
	"io"
	"log/slog"

	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// SetLicenseCommand carries a license stream from an ingest package.
// MimeType selects the stored representation: text/xml and text/rdf become
// license_rdf, everything else license_text.
type SetLicenseCommand struct {
	ActorID  string
	ItemID   string
	Content  io.Reader
	MimeType string
}

type SetLicenseUseCase struct {
	Items       ports.ItemRepository
	Bitstreams  ports.BitstreamStore
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Settings    ports.Settings
	Logger      *slog.Logger
}

func (u SetLicenseUseCase) Execute(ctx context.Context, cmd SetLicenseCommand) (SetLicenseResult, error) {
	name, format, mimeType := entities.LicenseFormat(cmd.MimeType)
	writer := bundleWriter{
		items:      u.Items,
		bitstreams: u.Bitstreams,
		authorizer: u.Authorizer,
		clock:      u.Clock,
		ids:        u.IDGenerator,
		settings:   u.Settings,
		logger:     u.Logger,
	}
	return writer.replace(ctx, bundleWrite{
		actorID:  cmd.ActorID,
		itemID:   cmd.ItemID,
		name:     name,
		format:   format,
		mimeType: mimeType,
		content:  cmd.Content,
		action:   entities.LicenseActionSet,
	})
}
