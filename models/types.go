// Package models holds the entities reconciled across the monitoring
// platform (VCOM), the mapping database and the Yuman CMMS. Entities are
// immutable values: reconciliation replaces whole rows by key, never merges
// fields in storage.
package models

import "fmt"

// Yuman material category ids. Centralised here so the three adapters can
// never drift apart.
const (
	CategoryInverter = 11102
	CategoryModule   = 11103
	CategoryString   = 12404
	CategoryPlant    = 11441
)

// Equipment kinds derived from the category id.
const (
	KindInverter = "inverter"
	KindModule   = "module"
	KindString   = "string_pv"
)

// InScopeCategory reports whether a category takes part in reconciliation.
// Everything else is filtered at the adapter boundary.
func InScopeCategory(categoryID int) bool {
	switch categoryID {
	case CategoryInverter, CategoryModule, CategoryString:
		return true
	}
	return false
}

// KindForCategory maps a category id to its equipment kind.
func KindForCategory(categoryID int) string {
	switch categoryID {
	case CategoryInverter:
		return KindInverter
	case CategoryModule:
		return KindModule
	default:
		return KindString
	}
}

// ModuleDeviceID is the synthetic device id for the per-site module-array
// aggregate. VCOM exposes panels without a device id of their own, so every
// system carries at most one module row under this key.
func ModuleDeviceID(siteKey string) string {
	return fmt.Sprintf("MODULES-%s", siteKey)
}

// Site is a solar installation. The VCOM system key is the stable identity
// across all three systems; YumanSiteID is minted by the CMMS on first
// creation and immutable afterwards.
type Site struct {
	VCOMSystemKey  string
	Name           string
	Latitude       *float64
	Longitude      *float64
	NominalPower   *float64
	CommissionDate *string // canonical YYYY-MM-DD
	Address        *string

	YumanSiteID *int64
}

// Key returns the diff key for the site.
func (s Site) Key() string { return s.VCOMSystemKey }

// Valid reports whether the site may enter a snapshot.
func (s Site) Valid() bool { return s.VCOMSystemKey != "" }

// Equal compares every reconciled field, foreign id included. Fields are
// enumerated on purpose: transient or derived data must never leak into the
// comparison.
func (s Site) Equal(o Site) bool {
	return s.VCOMSystemKey == o.VCOMSystemKey &&
		s.Name == o.Name &&
		eqFloat(s.Latitude, o.Latitude) &&
		eqFloat(s.Longitude, o.Longitude) &&
		eqFloat(s.NominalPower, o.NominalPower) &&
		eqString(s.CommissionDate, o.CommissionDate) &&
		eqString(s.Address, o.Address) &&
		eqInt64(s.YumanSiteID, o.YumanSiteID)
}

// EquipmentKey identifies a device within the fleet: the owning site plus
// the device id local to the monitoring system.
type EquipmentKey struct {
	SiteKey  string
	DeviceID string
}

func (k EquipmentKey) String() string {
	return fmt.Sprintf("%s/%s", k.SiteKey, k.DeviceID)
}

// Equipment is a physical device attached to a site: an inverter, the
// module-array aggregate or a PV string under an inverter.
type Equipment struct {
	SiteKey      string
	CategoryID   int
	Kind         string
	DeviceID     string
	Name         string
	Brand        *string
	Model        *string
	SerialNumber *string
	Count        *int    // module arrays only
	ParentDevice *string // string rows reference their inverter

	YumanMaterialID *int64
}

// Key returns the composite diff key.
func (e Equipment) Key() EquipmentKey {
	return EquipmentKey{SiteKey: e.SiteKey, DeviceID: e.DeviceID}
}

// Valid reports whether the equipment may enter a snapshot. A row with a
// missing device id cannot be correlated and is excluded, not defaulted.
func (e Equipment) Valid() bool {
	return e.SiteKey != "" && e.DeviceID != "" && InScopeCategory(e.CategoryID)
}

// Equal compares every reconciled field, foreign id included.
func (e Equipment) Equal(o Equipment) bool {
	return e.SiteKey == o.SiteKey &&
		e.CategoryID == o.CategoryID &&
		e.Kind == o.Kind &&
		e.DeviceID == o.DeviceID &&
		e.Name == o.Name &&
		eqString(e.Brand, o.Brand) &&
		eqString(e.Model, o.Model) &&
		eqString(e.SerialNumber, o.SerialNumber) &&
		eqInt(e.Count, o.Count) &&
		eqString(e.ParentDevice, o.ParentDevice) &&
		eqInt64(e.YumanMaterialID, o.YumanMaterialID)
}

func eqString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
