package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pvsync/models"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }
func i64(v int64) *int64 { return &v }

func TestSiteEqual_ForeignIDCarriedForward(t *testing.T) {
	stored := models.Site{VCOMSystemKey: "S1", Name: "A", YumanSiteID: i64(42)}
	incoming := models.Site{VCOMSystemKey: "S1", Name: "A", YumanSiteID: i64(42)}

	assert.True(t, stored.Equal(incoming))
}

func TestSiteEqual_ForeignIDMismatch(t *testing.T) {
	stored := models.Site{VCOMSystemKey: "S1", Name: "A", YumanSiteID: i64(42)}
	incoming := models.Site{VCOMSystemKey: "S1", Name: "A"}

	// An unset foreign id on one side is a difference; the orchestrator
	// must carry the stored id forward before diffing.
	assert.False(t, stored.Equal(incoming))
}

func TestSiteEqual_NilEqualsNil(t *testing.T) {
	a := models.Site{VCOMSystemKey: "S1", Name: "A"}
	b := models.Site{VCOMSystemKey: "S1", Name: "A"}

	assert.True(t, a.Equal(b))
}

func TestSiteEqual_EnumeratesFields(t *testing.T) {
	base := models.Site{
		VCOMSystemKey:  "S1",
		Name:           "A",
		Latitude:       f64(48.85),
		Longitude:      f64(2.35),
		NominalPower:   f64(100),
		CommissionDate: str("2021-03-01"),
		Address:        str("1 rue de la Paix"),
		YumanSiteID:    i64(7),
	}

	tests := []struct {
		name   string
		mutate func(models.Site) models.Site
	}{
		{"name", func(s models.Site) models.Site { s.Name = "B"; return s }},
		{"latitude", func(s models.Site) models.Site { s.Latitude = f64(0); return s }},
		{"longitude", func(s models.Site) models.Site { s.Longitude = nil; return s }},
		{"nominal power", func(s models.Site) models.Site { s.NominalPower = f64(99); return s }},
		{"commission date", func(s models.Site) models.Site { s.CommissionDate = str("2022-01-01"); return s }},
		{"address", func(s models.Site) models.Site { s.Address = nil; return s }},
		{"foreign id", func(s models.Site) models.Site { s.YumanSiteID = i64(8); return s }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, base.Equal(tc.mutate(base)))
		})
	}
}

func TestEquipmentValid(t *testing.T) {
	valid := models.Equipment{
		SiteKey:    "S1",
		DeviceID:   "Inv1",
		CategoryID: models.CategoryInverter,
	}
	assert.True(t, valid.Valid())

	noDevice := valid
	noDevice.DeviceID = ""
	assert.False(t, noDevice.Valid())

	noSite := valid
	noSite.SiteKey = ""
	assert.False(t, noSite.Valid())

	outOfScope := valid
	outOfScope.CategoryID = models.CategoryPlant
	assert.False(t, outOfScope.Valid())
}

func TestEquipmentEqual(t *testing.T) {
	a := models.Equipment{
		SiteKey:         "S1",
		CategoryID:      models.CategoryModule,
		Kind:            models.KindModule,
		DeviceID:        models.ModuleDeviceID("S1"),
		Name:            "Acme X1",
		Model:           str("Acme X1"),
		Count:           func() *int { n := 120; return &n }(),
		YumanMaterialID: i64(3),
	}
	b := a
	assert.True(t, a.Equal(b))

	b.Model = str("Acme X2")
	assert.False(t, a.Equal(b))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 12.0, f64(12)},
		{"numeric string", "12.0", f64(12)},
		{"padded string", " 99.5 ", f64(99.5)},
		{"int", 7, f64(7)},
		{"empty string", "", nil},
		{"garbage", "12kWc", nil},
		{"nil", nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := models.ParseDecimal(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestParseDecimal_StringAndFloatAgree(t *testing.T) {
	// "12.0" from one system and 12.0 from another must normalise to the
	// same value, or every run would re-update the field forever.
	fromString := models.ParseDecimal("12.0")
	fromFloat := models.ParseDecimal(12.0)
	assert.Equal(t, *fromFloat, *fromString)
}

func TestCanonicalDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *string
	}{
		{"date only", "2021-03-01", str("2021-03-01")},
		{"datetime", "2021-03-01T00:00:00Z", str("2021-03-01")},
		{"datetime with space", "2021-03-01 00:00:00", str("2021-03-01")},
		{"empty", "", nil},
		{"whitespace", "  ", nil},
		{"free text kept", "unknown", str("unknown")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := models.CanonicalDate(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestKindForCategory(t *testing.T) {
	assert.Equal(t, models.KindInverter, models.KindForCategory(models.CategoryInverter))
	assert.Equal(t, models.KindModule, models.KindForCategory(models.CategoryModule))
	assert.Equal(t, models.KindString, models.KindForCategory(models.CategoryString))
}

func TestModuleDeviceID(t *testing.T) {
	assert.Equal(t, "MODULES-S1", models.ModuleDeviceID("S1"))
}
