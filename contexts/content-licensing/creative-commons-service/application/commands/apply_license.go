package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/services"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// ApplyLicenseCommand assigns a license chosen during submission. Document is
// the raw license response; it may be empty when only metadata is recorded.
type ApplyLicenseCommand struct {
	ActorID     string
	ItemID      string
	LicenseURI  string
	LicenseName string
	Document    []byte
	URIField    entities.LicenseMetadataValue
	NameField   entities.LicenseMetadataValue
}

type ApplyLicenseResult struct {
	LicenseURI string
	Bitstream  *entities.Bitstream
}

// ApplyLicenseUseCase records the license URI (and name when
// cc.submit.setname is on) and, when cc.submit.addbitstream is on, stores the
// reduced RDF of Document as the license_rdf bitstream. Fields and bundle are
// committed together.
type ApplyLicenseUseCase struct {
	Items         ports.ItemRepository
	Authorizer    ports.Authorizer
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Settings      ports.Settings
	SetLicenseRDF SetLicenseRDFUseCase
	Logger        *slog.Logger
}

func (u ApplyLicenseUseCase) Execute(ctx context.Context, cmd ApplyLicenseCommand) (ApplyLicenseResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if !u.Settings.Enabled {
		return ApplyLicenseResult{}, domainerrors.ErrLicensingDisabled
	}
	if strings.TrimSpace(cmd.ItemID) == "" || cmd.URIField.Field.Element == "" {
		return ApplyLicenseResult{}, domainerrors.ErrInvalidLicenseRequest
	}

	licenseRDF := ""
	licenseURI := strings.TrimSpace(cmd.LicenseURI)
	if len(cmd.Document) > 0 {
		doc, err := services.ParseLicenseDocument(cmd.Document)
		if err != nil {
			return ApplyLicenseResult{}, err
		}
		if licenseURI == "" {
			licenseURI = services.LicenseURI(doc)
		}
		if u.Settings.AddBitstream {
			licenseRDF, err = services.FetchLicenseRDF(doc)
			if err != nil {
				return ApplyLicenseResult{}, err
			}
		}
	}
	if licenseURI == "" {
		return ApplyLicenseResult{}, domainerrors.ErrInvalidLicenseRequest
	}

	if err := application.Authorize(ctx, u.Authorizer, cmd.ActorID, ports.PermissionItemWrite, cmd.ItemID); err != nil {
		return ApplyLicenseResult{}, err
	}
	if _, err := u.Items.GetItem(ctx, cmd.ItemID); err != nil {
		return ApplyLicenseResult{}, application.PersistenceFailure(err)
	}

	changes := []entities.FieldChange{{Field: cmd.URIField.Field, Values: []string{licenseURI}}}
	if u.Settings.SetName && strings.TrimSpace(cmd.LicenseName) != "" && cmd.NameField.Field.Element != "" {
		changes = append(changes, entities.FieldChange{
			Field:  cmd.NameField.Field,
			Values: []string{strings.TrimSpace(cmd.LicenseName)},
		})
	}

	result := ApplyLicenseResult{LicenseURI: licenseURI}
	if licenseRDF != "" {
		stored, err := u.SetLicenseRDF.writer().replace(ctx, bundleWrite{
			actorID:    cmd.ActorID,
			itemID:     cmd.ItemID,
			name:       entities.BitstreamNameLicenseRDF,
			format:     entities.FormatRDFXML,
			mimeType:   entities.MimeTypeRDFXML,
			licenseURI: licenseURI,
			content:    strings.NewReader(licenseRDF),
			action:     entities.LicenseActionApplied,
			fields:     changes,
		})
		if err != nil {
			return ApplyLicenseResult{}, err
		}
		result.Bitstream = &stored.Bitstream
	} else {
		eventID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return ApplyLicenseResult{}, err
		}
		if _, err := u.Items.UpdateLicense(ctx, cmd.ItemID, ports.LicenseUpdate{
			Fields: changes,
			Change: entities.LicenseChange{
				EventID:    eventID,
				ItemID:     cmd.ItemID,
				ActorID:    cmd.ActorID,
				Action:     entities.LicenseActionApplied,
				LicenseURI: licenseURI,
				OccurredAt: u.now(),
			},
		}); err != nil {
			return ApplyLicenseResult{}, application.PersistenceFailure(err)
		}
	}

	logger.Info("license applied",
		"event", "cc_license_applied",
		"module", application.ModuleName,
		"layer", "application",
		"item_id", cmd.ItemID,
		"license_uri", licenseURI,
		"bitstream_stored", result.Bitstream != nil,
	)
	return result, nil
}

func (u ApplyLicenseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
