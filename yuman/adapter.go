package yuman

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pvsync/config"
	"pvsync/diff"
	"pvsync/models"
)

// ForeignIDStore resolves and records the Yuman ids the database keeps per
// VCOM key. Implemented by the database adapter. SiteYumanID answers nil
// both for a stored site without a Yuman id and for an unknown site key;
// neither is an error.
type ForeignIDStore interface {
	SiteYumanID(ctx context.Context, siteKey string) (*int64, error)
	SetSiteYumanID(ctx context.Context, siteKey string, id int64) error
	SetEquipmentYumanID(ctx context.Context, key models.EquipmentKey, id int64) error
}

// Adapter turns Yuman into keyed snapshots and applies patches under the
// CMMS field policies: restricted update payloads, fill-if-blank for model,
// never touch manually curated data. Construct a fresh adapter per run.
type Adapter struct {
	api API
	ids ForeignIDStore
	cfg config.Settings
	log zerolog.Logger

	mu        sync.Mutex
	loaded    bool
	sites     map[string]models.Site
	siteKeyBy map[int64]string // yuman site id -> vcom key
}

// NewAdapter wraps the Yuman API and the foreign-id store.
func NewAdapter(api API, ids ForeignIDStore, cfg config.Settings, log zerolog.Logger) *Adapter {
	return &Adapter{
		api: api,
		ids: ids,
		cfg: cfg,
		log: log.With().Str("component", "yuman").Logger(),
	}
}

// FetchSites returns the CMMS site snapshot. Sites without the system-key
// custom field are not mapped yet and stay out of scope.
func (a *Adapter) FetchSites(ctx context.Context) (map[string]models.Site, error) {
	if err := a.loadSites(ctx); err != nil {
		return nil, err
	}
	return a.sites, nil
}

func (a *Adapter) loadSites(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}

	dtos, err := a.api.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("list yuman sites: %w", err)
	}

	sites := make(map[string]models.Site)
	keyByID := make(map[int64]string)
	for _, dto := range dtos {
		cvals := fieldMap(dto.Embed.Fields)
		vcomKey := fieldString(cvals[FieldSystemKey])
		if vcomKey == "" {
			continue // not mapped to a monitoring system yet
		}
		id := dto.ID
		site := models.Site{
			VCOMSystemKey:  vcomKey,
			Name:           dto.Name,
			Latitude:       dto.Latitude,
			Longitude:      dto.Longitude,
			NominalPower:   models.ParseDecimal(cvals[FieldNominalPower]),
			CommissionDate: models.CanonicalDate(fieldString(cvals[FieldCommissionDate])),
			Address:        models.NonEmpty(dto.Address),
			YumanSiteID:    &id,
		}
		sites[site.Key()] = site
		keyByID[id] = vcomKey
	}

	a.sites = sites
	a.siteKeyBy = keyByID
	a.loaded = true
	a.log.Debug().Int("sites", len(sites)).Msg("snapshot fetched")
	return nil
}

// FetchEquipment returns the CMMS equipment snapshot: in-scope materials on
// mapped sites, keyed by (site key, device id).
func (a *Adapter) FetchEquipment(ctx context.Context) (map[models.EquipmentKey]models.Equipment, error) {
	if err := a.loadSites(ctx); err != nil {
		return nil, err
	}

	dtos, err := a.api.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list yuman materials: %w", err)
	}

	out := make(map[models.EquipmentKey]models.Equipment)
	for _, dto := range dtos {
		siteKey, ok := a.siteKeyBy[dto.SiteID]
		if !ok {
			continue // material on an unmapped site
		}
		if !models.InScopeCategory(dto.CategoryID) {
			continue
		}

		cvals := fieldMap(dto.Embed.Fields)
		var deviceID string
		switch dto.CategoryID {
		case models.CategoryInverter:
			deviceID = fieldString(cvals[FieldInverterID])
		case models.CategoryModule:
			deviceID = models.ModuleDeviceID(siteKey)
		default:
			deviceID = dto.Name
		}

		id := dto.ID
		eq := models.Equipment{
			SiteKey:         siteKey,
			CategoryID:      dto.CategoryID,
			Kind:            models.KindForCategory(dto.CategoryID),
			DeviceID:        deviceID,
			Name:            dto.Name,
			Brand:           models.NonEmpty(dto.Brand),
			Model:           models.NonEmpty(dto.Model),
			SerialNumber:    models.NonEmpty(dto.SerialNumber),
			YumanMaterialID: &id,
		}
		if !eq.Valid() {
			a.log.Warn().Int64("material", dto.ID).Str("site", siteKey).
				Msg("material without device id, excluded from snapshot")
			continue
		}
		out[eq.Key()] = eq
	}

	a.log.Debug().Int("equipment", len(out)).Msg("snapshot fetched")
	return out, nil
}

// ApplySitePatch creates missing sites (writing the minted id back to the
// database before returning) and pushes the restricted update payload:
// nominal power and commission date, each only when changed and non-nil.
// Deletes are computed upstream but never applied here.
func (a *Adapter) ApplySitePatch(ctx context.Context, patch diff.PatchSet[models.Site]) error {
	for _, s := range patch.Add {
		payload := SitePayload{
			ClientID:  a.cfg.YumanDefaultClientID,
			Name:      s.Name,
			Address:   models.StringValue(s.Address),
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Fields: []CustomField{
				{BlueprintID: a.cfg.YumanSiteFields.SystemKey, Name: FieldSystemKey, Value: s.VCOMSystemKey},
				{BlueprintID: a.cfg.YumanSiteFields.NominalPower, Name: FieldNominalPower, Value: s.NominalPower},
				{BlueprintID: a.cfg.YumanSiteFields.CommissionDate, Name: FieldCommissionDate, Value: s.CommissionDate},
			},
		}
		created, err := a.api.CreateSite(ctx, payload)
		if err != nil {
			return fmt.Errorf("create site %s: %w", s.Key(), err)
		}
		if err := a.ids.SetSiteYumanID(ctx, s.VCOMSystemKey, created.ID); err != nil {
			return err
		}
		a.log.Info().Str("site", s.Key()).Int64("yuman_site_id", created.ID).Msg("site created")
	}

	for _, ch := range patch.Update {
		old, updated := ch.Old, ch.New
		if old.YumanSiteID == nil {
			a.log.Warn().Str("site", old.Key()).Msg("update without yuman site id, skipping")
			continue
		}

		var fields []CustomField
		if updated.NominalPower != nil && !floatPtrEqual(old.NominalPower, updated.NominalPower) {
			fields = append(fields, CustomField{
				BlueprintID: a.cfg.YumanSiteFields.NominalPower,
				Name:        FieldNominalPower,
				Value:       *updated.NominalPower,
			})
		}
		if updated.CommissionDate != nil && !stringPtrEqual(old.CommissionDate, updated.CommissionDate) {
			fields = append(fields, CustomField{
				BlueprintID: a.cfg.YumanSiteFields.CommissionDate,
				Name:        FieldCommissionDate,
				Value:       *updated.CommissionDate,
			})
		}
		if len(fields) == 0 {
			continue
		}
		if err := a.api.UpdateSite(ctx, *old.YumanSiteID, map[string]any{"fields": fields}); err != nil {
			return fmt.Errorf("update site %s: %w", old.Key(), err)
		}
		a.log.Info().Str("site", old.Key()).Int("fields", len(fields)).Msg("site updated")
	}

	if len(patch.Delete) > 0 {
		a.log.Warn().Int("count", len(patch.Delete)).Msg("site deletes suppressed by policy")
	}
	return nil
}

// ApplyEquipmentPatch creates missing materials and pushes the restricted
// update payload. Adds are independent of each other and run concurrently,
// bounded by the configured parallelism; the shared rate limiter keeps the
// remote quota safe. An add whose parent site has no Yuman id yet is skipped
// with a warning; one missing dependency must not abort the batch.
func (a *Adapter) ApplyEquipmentPatch(ctx context.Context, patch diff.PatchSet[models.Equipment]) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.ApplyConcurrency)

	for _, e := range patch.Add {
		e := e
		g.Go(func() error {
			return a.createMaterial(gctx, e)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ch := range patch.Update {
		if err := a.updateMaterial(ctx, ch.Old, ch.New); err != nil {
			return err
		}
	}

	if len(patch.Delete) > 0 {
		a.log.Warn().Int("count", len(patch.Delete)).Msg("equipment deletes suppressed by policy")
	}
	return nil
}

func (a *Adapter) createMaterial(ctx context.Context, e models.Equipment) error {
	siteID, err := a.ids.SiteYumanID(ctx, e.SiteKey)
	if err != nil {
		return err
	}
	if siteID == nil {
		a.log.Warn().Stringer("equipment", e.Key()).
			Msg("site has no yuman id yet, skipping material creation")
		return nil
	}

	payload := MaterialPayload{
		SiteID:       *siteID,
		Name:         e.Name,
		CategoryID:   e.CategoryID,
		Brand:        e.Brand,
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
		Count:        e.Count,
	}
	if e.CategoryID == models.CategoryInverter {
		payload.Fields = []CustomField{{Name: FieldInverterID, Value: e.DeviceID}}
	}

	created, err := a.api.CreateMaterial(ctx, payload)
	if err != nil {
		return fmt.Errorf("create material %s: %w", e.Key(), err)
	}
	if err := a.ids.SetEquipmentYumanID(ctx, e.Key(), created.ID); err != nil {
		return err
	}
	a.log.Info().Stringer("equipment", e.Key()).Int64("yuman_material_id", created.ID).Msg("material created")
	return nil
}

// updateMaterial narrows the diff's changed signal to what Yuman owns: a
// device-id correction for inverters, and the model only when the current
// Yuman value is blank. A populated model is curated data and is never
// overwritten.
func (a *Adapter) updateMaterial(ctx context.Context, old, updated models.Equipment) error {
	if old.YumanMaterialID == nil {
		a.log.Warn().Stringer("equipment", old.Key()).Msg("update without yuman material id, skipping")
		return nil
	}

	payload := map[string]any{}
	if old.CategoryID == models.CategoryInverter && old.DeviceID != updated.DeviceID {
		payload["fields"] = []CustomField{{Name: FieldInverterID, Value: updated.DeviceID}}
	}
	if models.StringValue(old.Model) == "" && updated.Model != nil {
		payload["model"] = *updated.Model
	}
	if len(payload) == 0 {
		return nil
	}

	if err := a.api.UpdateMaterial(ctx, *old.YumanMaterialID, payload); err != nil {
		return fmt.Errorf("update material %s: %w", old.Key(), err)
	}
	a.log.Info().Stringer("equipment", old.Key()).Msg("material updated")
	return nil
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
