package vcom

// Wire types for the VCOM API. Every response wraps its payload in a "data"
// envelope.

type systemsResponse struct {
	Data []System `json:"data"`
}

// System is one entry of the systems listing.
type System struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type systemDetailsResponse struct {
	Data SystemDetails `json:"data"`
}

// SystemDetails carries the physical attributes of a system.
type SystemDetails struct {
	Coordinates struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"coordinates"`
	CommissionDate string `json:"commissionDate"`
	Address        struct {
		Street string `json:"street"`
	} `json:"address"`
}

type technicalDataResponse struct {
	Data TechnicalData `json:"data"`
}

// TechnicalData carries rated power and the installed panel references.
type TechnicalData struct {
	NominalPower *float64 `json:"nominalPower"`
	Panels       []Panel  `json:"panels"`
}

// Panel is one module reference within a system.
type Panel struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
	Count  *int   `json:"count"`
}

type invertersResponse struct {
	Data []Inverter `json:"data"`
}

// Inverter is one entry of a system's inverter listing.
type Inverter struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Serial string `json:"serial"`
}

type inverterDetailsResponse struct {
	Data InverterDetails `json:"data"`
}

// InverterDetails carries vendor/model for a single inverter.
type InverterDetails struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model"`
}
