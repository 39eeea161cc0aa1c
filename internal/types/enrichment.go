package types

// Weather is the compact weather summary shown next to a trip.
type Weather struct {
	Location    string  `json:"location"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	Available   bool    `json:"available"`
}

// GeoPlace is a geocoding match for a free-text place.
type GeoPlace struct {
	Formatted string  `json:"formatted"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// EnrichedTrip is a trip with lookups attached. Missing lookups carry fallbacks.
type EnrichedTrip struct {
	Trip       Trip     `json:"trip"`
	CoverImage string   `json:"cover_image"`
	Weather    Weather  `json:"weather"`
	Place      GeoPlace `json:"place"`
}
