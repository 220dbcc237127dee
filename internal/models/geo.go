package models

import "encoding/json"

// Location is a geographic coordinate pair as delivered by the planning
// backend. A nil *Location means the item is map-ineligible.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseLocation decodes a raw location payload, returning nil for anything
// that is not an object carrying numeric lat and lng. The backend
// occasionally emits null, missing or string-typed coordinates; those items
// stay usable elsewhere, they just never reach the map.
func ParseLocation(raw json.RawMessage) *Location {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var wire struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	if wire.Lat == nil || wire.Lng == nil {
		return nil
	}

	return &Location{Lat: *wire.Lat, Lng: *wire.Lng}
}

// Bounds is a rectangular region used to frame the map view around a set of
// drawn points.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`

	valid bool
}

// Extend grows the bounds to include the given location.
func (b *Bounds) Extend(loc Location) {
	if !b.valid {
		b.MinLat, b.MaxLat = loc.Lat, loc.Lat
		b.MinLng, b.MaxLng = loc.Lng, loc.Lng
		b.valid = true
		return
	}
	if loc.Lat < b.MinLat {
		b.MinLat = loc.Lat
	}
	if loc.Lat > b.MaxLat {
		b.MaxLat = loc.Lat
	}
	if loc.Lng < b.MinLng {
		b.MinLng = loc.Lng
	}
	if loc.Lng > b.MaxLng {
		b.MaxLng = loc.Lng
	}
}

// Valid reports whether at least one location has been folded in.
func (b *Bounds) Valid() bool {
	return b.valid
}

// BoundsOf computes the bounding region of a set of locations.
func BoundsOf(locs []Location) Bounds {
	var b Bounds
	for _, loc := range locs {
		b.Extend(loc)
	}
	return b
}
