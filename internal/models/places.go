package models

// NearbyResult is the response of a nearby-places lookup around one
// attraction.
type NearbyResult struct {
	Restaurants []NearbyRestaurant `json:"restaurants"`
}

// NearbyRestaurant is one restaurant near an attraction. All fields except
// Name are optional on the wire.
type NearbyRestaurant struct {
	Name       string        `json:"name"`
	Type       string        `json:"type,omitempty"`
	Rating     *float64      `json:"rating,omitempty"`
	PriceLevel *int          `json:"price_level,omitempty"`
	Address    string        `json:"address,omitempty"`
	Photos     []NearbyPhoto `json:"photos,omitempty"`
}

// NearbyPhoto is a photo reference for a nearby restaurant.
type NearbyPhoto struct {
	URL string `json:"url"`
}
