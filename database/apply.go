package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pvsync/diff"
	"pvsync/models"
)

// ApplySitePatch inserts adds and replaces updates by key. Deletes are never
// executed: a system disappearing upstream must not erase its operational
// history here. Application is item-by-item, not transactional; a partial
// run is corrected by the next one.
func (db *Database) ApplySitePatch(ctx context.Context, patch diff.PatchSet[models.Site]) error {
	for _, s := range patch.Add {
		db.log.Debug().Str("site", s.Key()).Msg("insert site")
		_, err := db.pool.Exec(ctx, `
			INSERT INTO sites_mapping
				(vcom_system_key, name, latitude, longitude, nominal_power,
				 commission_date, address, yuman_site_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (vcom_system_key) DO NOTHING
		`, s.VCOMSystemKey, s.Name, s.Latitude, s.Longitude, s.NominalPower,
			s.CommissionDate, s.Address, s.YumanSiteID)
		if err != nil {
			return fmt.Errorf("insert site %s: %w", s.Key(), err)
		}
	}

	for _, ch := range patch.Update {
		s := ch.New
		db.log.Debug().Str("site", s.Key()).Msg("update site")
		_, err := db.pool.Exec(ctx, `
			UPDATE sites_mapping
			SET name = $2, latitude = $3, longitude = $4, nominal_power = $5,
			    commission_date = $6, address = $7, yuman_site_id = $8,
			    updated_at = NOW()
			WHERE vcom_system_key = $1
		`, s.VCOMSystemKey, s.Name, s.Latitude, s.Longitude, s.NominalPower,
			s.CommissionDate, s.Address, s.YumanSiteID)
		if err != nil {
			return fmt.Errorf("update site %s: %w", s.Key(), err)
		}
	}

	if len(patch.Delete) > 0 {
		db.log.Warn().Int("count", len(patch.Delete)).Msg("site deletes suppressed by policy")
	}
	return nil
}

// ApplyEquipmentPatch inserts adds and replaces updates by composite key.
// Same delete suppression as sites.
func (db *Database) ApplyEquipmentPatch(ctx context.Context, patch diff.PatchSet[models.Equipment]) error {
	for _, e := range patch.Add {
		db.log.Debug().Stringer("equipment", e.Key()).Msg("insert equipment")
		_, err := db.pool.Exec(ctx, `
			INSERT INTO equipments_mapping
				(vcom_system_key, vcom_device_id, category_id, eq_type, name,
				 brand, model, serial_number, count, parent_vcom_id, yuman_material_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (vcom_system_key, vcom_device_id) DO NOTHING
		`, e.SiteKey, e.DeviceID, e.CategoryID, e.Kind, e.Name,
			e.Brand, e.Model, e.SerialNumber, e.Count, e.ParentDevice, e.YumanMaterialID)
		if err != nil {
			return fmt.Errorf("insert equipment %s: %w", e.Key(), err)
		}
	}

	for _, ch := range patch.Update {
		e := ch.New
		db.log.Debug().Stringer("equipment", e.Key()).Msg("update equipment")
		_, err := db.pool.Exec(ctx, `
			UPDATE equipments_mapping
			SET category_id = $3, eq_type = $4, name = $5, brand = $6,
			    model = $7, serial_number = $8, count = $9, parent_vcom_id = $10,
			    yuman_material_id = $11, updated_at = NOW()
			WHERE vcom_system_key = $1 AND vcom_device_id = $2
		`, e.SiteKey, e.DeviceID, e.CategoryID, e.Kind, e.Name,
			e.Brand, e.Model, e.SerialNumber, e.Count, e.ParentDevice, e.YumanMaterialID)
		if err != nil {
			return fmt.Errorf("update equipment %s: %w", e.Key(), err)
		}
	}

	if len(patch.Delete) > 0 {
		db.log.Warn().Int("count", len(patch.Delete)).Msg("equipment deletes suppressed by policy")
	}
	return nil
}

// SiteYumanID looks up the CMMS id for a site key, nil when the site has not
// been created in Yuman yet. A missing row is the same answer as a null id:
// the caller skips the item either way, it must not abort the batch.
func (db *Database) SiteYumanID(ctx context.Context, siteKey string) (*int64, error) {
	var id *int64
	err := db.pool.QueryRow(ctx, `
		SELECT yuman_site_id FROM sites_mapping WHERE vcom_system_key = $1
	`, siteKey).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup yuman site id for %s: %w", siteKey, err)
	}
	return id, nil
}

// SetSiteYumanID stores the id Yuman minted for a site. Written once, right
// after creation; never overwritten afterwards.
func (db *Database) SetSiteYumanID(ctx context.Context, siteKey string, id int64) error {
	_, err := db.pool.Exec(ctx, `
		UPDATE sites_mapping
		SET yuman_site_id = $2, updated_at = NOW()
		WHERE vcom_system_key = $1 AND yuman_site_id IS NULL
	`, siteKey, id)
	if err != nil {
		return fmt.Errorf("set yuman site id for %s: %w", siteKey, err)
	}
	return nil
}

// SetEquipmentYumanID stores the id Yuman minted for a material.
func (db *Database) SetEquipmentYumanID(ctx context.Context, key models.EquipmentKey, id int64) error {
	_, err := db.pool.Exec(ctx, `
		UPDATE equipments_mapping
		SET yuman_material_id = $3, updated_at = NOW()
		WHERE vcom_system_key = $1 AND vcom_device_id = $2 AND yuman_material_id IS NULL
	`, key.SiteKey, key.DeviceID, id)
	if err != nil {
		return fmt.Errorf("set yuman material id for %s: %w", key, err)
	}
	return nil
}
