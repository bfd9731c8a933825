package database

import (
	"context"
	"fmt"

	"pvsync/models"
)

// FetchSites returns the stored site snapshot keyed by VCOM system key.
// Rows without a key predate the mapping and stay out of scope.
func (db *Database) FetchSites(ctx context.Context) (map[string]models.Site, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT vcom_system_key, name, latitude, longitude, nominal_power,
		       commission_date, address, yuman_site_id
		FROM sites_mapping
	`)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Site)
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(
			&s.VCOMSystemKey, &s.Name, &s.Latitude, &s.Longitude,
			&s.NominalPower, &s.CommissionDate, &s.Address, &s.YumanSiteID,
		); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		if !s.Valid() {
			continue
		}
		out[s.Key()] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}

	db.log.Debug().Int("sites", len(out)).Msg("snapshot fetched")
	return out, nil
}

// FetchEquipment returns the stored equipment snapshot, restricted to the
// reconciled categories.
func (db *Database) FetchEquipment(ctx context.Context) (map[models.EquipmentKey]models.Equipment, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT vcom_system_key, vcom_device_id, category_id, eq_type, name,
		       brand, model, serial_number, count, parent_vcom_id, yuman_material_id
		FROM equipments_mapping
		WHERE category_id = ANY($1)
	`, []int{models.CategoryInverter, models.CategoryModule, models.CategoryString})
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()

	out := make(map[models.EquipmentKey]models.Equipment)
	for rows.Next() {
		var e models.Equipment
		if err := rows.Scan(
			&e.SiteKey, &e.DeviceID, &e.CategoryID, &e.Kind, &e.Name,
			&e.Brand, &e.Model, &e.SerialNumber, &e.Count, &e.ParentDevice,
			&e.YumanMaterialID,
		); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		if !e.Valid() {
			continue
		}
		out[e.Key()] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}

	db.log.Debug().Int("equipment", len(out)).Msg("snapshot fetched")
	return out, nil
}
