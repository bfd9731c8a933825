package yuman

// Labels of the custom fields this tool owns on the Yuman side.
const (
	FieldSystemKey      = "System Key (Vcom ID)"
	FieldNominalPower   = "Nominal Power (kWc)"
	FieldCommissionDate = "Commission Date"
	FieldInverterID     = "Inverter ID (Vcom)"
)

// CustomField is one entry of a site's or material's custom-field embed.
// Values come back untyped; numbers are frequently strings.
type CustomField struct {
	BlueprintID int64  `json:"blueprint_id,omitempty"`
	Name        string `json:"name"`
	Value       any    `json:"value"`
}

// Embed carries the custom-field expansion of a listing entry.
type Embed struct {
	Fields []CustomField `json:"fields"`
}

type sitesPage struct {
	Items []SiteDTO `json:"items"`
}

// SiteDTO is a Yuman site as listed with embed=fields,client.
type SiteDTO struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Embed     Embed    `json:"_embed"`
}

type materialsPage struct {
	Items []MaterialDTO `json:"items"`
}

// MaterialDTO is a Yuman material as listed with embed=fields,site.
type MaterialDTO struct {
	ID           int64  `json:"id"`
	SiteID       int64  `json:"site_id"`
	Name         string `json:"name"`
	CategoryID   int    `json:"category_id"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	Embed        Embed  `json:"_embed"`
}

// SitePayload is the create-site request body.
type SitePayload struct {
	ClientID  int64         `json:"client_id,omitempty"`
	Name      string        `json:"name"`
	Address   string        `json:"address,omitempty"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Fields    []CustomField `json:"fields,omitempty"`
}

// MaterialPayload is the create-material request body.
type MaterialPayload struct {
	SiteID       int64         `json:"site_id"`
	Name         string        `json:"name"`
	CategoryID   int           `json:"category_id"`
	Brand        *string       `json:"brand,omitempty"`
	Model        *string       `json:"model,omitempty"`
	SerialNumber *string       `json:"serial_number,omitempty"`
	Count        *int          `json:"count,omitempty"`
	Fields       []CustomField `json:"fields,omitempty"`
}

// fieldMap indexes an embed's custom fields by label.
func fieldMap(fields []CustomField) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

// fieldString renders a custom-field value as a string, "" when absent.
func fieldString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
