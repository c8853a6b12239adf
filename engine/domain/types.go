// Package domain defines the core vincheck types and the VIN validation gate
// that runs before any lookup is issued.
package domain

// NotAvailable is shown for any decoded attribute the provider left empty.
const NotAvailable = "N/A"

// VINLength is the only accepted VIN length.
const VINLength = 17

// VIN is a validated, upper-cased vehicle identification number.
type VIN string

func (v VIN) String() string { return string(v) }

// VehicleSummary is the normalized decode result. Every field holds either a
// real value or NotAvailable.
type VehicleSummary struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	ModelYear    string `json:"model_year"`
	EngineModel  string `json:"engine_model"`
	BodyClass    string `json:"body_class"`
	Trim         string `json:"trim"`
	PlantCountry string `json:"plant_country"`
	PlantState   string `json:"plant_state"`
}

// Resolved reports whether the decode identified the vehicle at all.
func (s VehicleSummary) Resolved() bool {
	return s.Make != NotAvailable || s.Model != NotAvailable
}

// Recall is one NHTSA recall campaign as returned by recallsByVehicle.
type Recall struct {
	Manufacturer        string `json:"Manufacturer"`
	NHTSACampaignNumber string `json:"NHTSACampaignNumber"`
	ReportReceivedDate  string `json:"ReportReceivedDate"`
	Component           string `json:"Component"`
	Summary             string `json:"Summary"`
	Consequence         string `json:"Consequence"`
	Remedy              string `json:"Remedy"`
	Notes               string `json:"Notes,omitempty"`
	ParkIt              bool   `json:"parkIt,omitempty"`
	ParkOutSide         bool   `json:"parkOutSide,omitempty"`
}

// Complaint is one consumer complaint as returned by complaintsByVehicle.
type Complaint struct {
	ODINumber          int    `json:"odiNumber"`
	Manufacturer       string `json:"manufacturer"`
	Crash              bool   `json:"crash"`
	Fire               bool   `json:"fire"`
	NumberOfInjuries   int    `json:"numberOfInjuries"`
	NumberOfDeaths     int    `json:"numberOfDeaths"`
	DateOfIncident     string `json:"dateOfIncident"`
	DateComplaintFiled string `json:"dateComplaintFiled"`
	VIN                string `json:"vin,omitempty"`
	Components         string `json:"components"`
	Summary            string `json:"summary"`
}
