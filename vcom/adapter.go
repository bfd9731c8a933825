package vcom

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pvsync/models"
)

// Adapter turns the VCOM API into keyed snapshots. Sites and equipment come
// from the same walk over the systems listing, so the walk runs once per
// adapter and both fetches read from it. Construct a fresh adapter per run.
type Adapter struct {
	client *Client
	log    zerolog.Logger

	loaded bool
	sites  map[string]models.Site
	equips map[models.EquipmentKey]models.Equipment
}

// NewAdapter wraps a VCOM client.
func NewAdapter(client *Client, log zerolog.Logger) *Adapter {
	return &Adapter{
		client: client,
		log:    log.With().Str("component", "vcom").Logger(),
	}
}

// FetchSites returns the monitoring snapshot of sites. VCOM never carries
// foreign ids; the orchestrator merges known ones in before diffing.
func (a *Adapter) FetchSites(ctx context.Context) (map[string]models.Site, error) {
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	return a.sites, nil
}

// FetchEquipment returns the monitoring snapshot of equipment.
func (a *Adapter) FetchEquipment(ctx context.Context) (map[models.EquipmentKey]models.Equipment, error) {
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	return a.equips, nil
}

func (a *Adapter) load(ctx context.Context) error {
	if a.loaded {
		return nil
	}

	systems, err := a.client.Systems(ctx)
	if err != nil {
		return fmt.Errorf("list systems: %w", err)
	}

	sites := make(map[string]models.Site, len(systems))
	equips := make(map[models.EquipmentKey]models.Equipment)

	for _, sys := range systems {
		if sys.Key == "" {
			a.log.Warn().Str("name", sys.Name).Msg("system without key, skipping")
			continue
		}

		details, err := a.client.SystemDetails(ctx, sys.Key)
		if err != nil {
			return fmt.Errorf("system %s details: %w", sys.Key, err)
		}
		tech, err := a.client.TechnicalData(ctx, sys.Key)
		if err != nil {
			return fmt.Errorf("system %s technical data: %w", sys.Key, err)
		}

		name := sys.Name
		if name == "" {
			name = sys.Key
		}
		site := models.Site{
			VCOMSystemKey:  sys.Key,
			Name:           name,
			Latitude:       details.Coordinates.Latitude,
			Longitude:      details.Coordinates.Longitude,
			NominalPower:   tech.NominalPower,
			CommissionDate: models.CanonicalDate(details.CommissionDate),
			Address:        models.NonEmpty(details.Address.Street),
		}
		sites[site.Key()] = site

		// One aggregated module-array row per system; VCOM lists panel
		// references, not individual module devices.
		if len(tech.Panels) > 0 {
			p := tech.Panels[0]
			name := p.Model
			if name == "" {
				name = "Modules"
			}
			mod := models.Equipment{
				SiteKey:    sys.Key,
				CategoryID: models.CategoryModule,
				Kind:       models.KindModule,
				DeviceID:   models.ModuleDeviceID(sys.Key),
				Name:       name,
				Brand:      models.NonEmpty(p.Vendor),
				Model:      models.NonEmpty(p.Model),
				Count:      p.Count,
			}
			equips[mod.Key()] = mod
		}

		inverters, err := a.client.Inverters(ctx, sys.Key)
		if err != nil {
			return fmt.Errorf("system %s inverters: %w", sys.Key, err)
		}
		for _, inv := range inverters {
			if inv.ID == "" {
				a.log.Warn().Str("site", sys.Key).Msg("inverter without device id, skipping")
				continue
			}
			invDetails, err := a.client.InverterDetails(ctx, sys.Key, inv.ID)
			if err != nil {
				return fmt.Errorf("inverter %s/%s details: %w", sys.Key, inv.ID, err)
			}
			name := inv.Name
			if name == "" {
				name = inv.ID
			}
			eq := models.Equipment{
				SiteKey:      sys.Key,
				CategoryID:   models.CategoryInverter,
				Kind:         models.KindInverter,
				DeviceID:     inv.ID,
				Name:         name,
				Brand:        models.NonEmpty(invDetails.Vendor),
				Model:        models.NonEmpty(invDetails.Model),
				SerialNumber: models.NonEmpty(inv.Serial),
			}
			equips[eq.Key()] = eq
		}
	}

	a.sites = sites
	a.equips = equips
	a.loaded = true
	a.log.Info().Int("sites", len(sites)).Int("equipment", len(equips)).Msg("snapshot fetched")
	return nil
}
