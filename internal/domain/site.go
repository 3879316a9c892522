package domain

// Site describes one radar location the service simulates. Sites come from
// configuration and are assumed well-formed beyond the checks the engine
// performs at its boundary.
type Site struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
}

// DefaultSites is the built-in site list used when RADAR_SITES is not set:
// one tropical and one temperate site so both profiles are exercised out of
// the box.
var DefaultSites = []Site{
	{
		ID:          "mia-s",
		Name:        "Miami Synthetic",
		Location:    "Miami, FL",
		Latitude:    25.76,
		Longitude:   -80.19,
		Description: "Simulated tropical radar site",
	},
	{
		ID:          "ord-s",
		Name:        "Chicago Synthetic",
		Location:    "Chicago, IL",
		Latitude:    41.88,
		Longitude:   -87.63,
		Description: "Simulated temperate radar site",
	},
}
