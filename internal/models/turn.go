package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// TurnEventType discriminates the three event kinds a streaming turn can
// deliver.
type TurnEventType string

const (
	TurnEventChunk    TurnEventType = "chunk"
	TurnEventComplete TurnEventType = "complete"
	TurnEventError    TurnEventType = "error"
)

// TurnEvent is one server-pushed event of a streaming turn, decoded once at
// the transport boundary. Exactly one terminal event (complete or error)
// ends a turn.
type TurnEvent struct {
	Type    TurnEventType
	Content string       // chunk text
	Err     string       // backend-reported detail, diagnostics only
	Payload *TurnPayload // set for complete events
}

// TurnPayload is the structured payload carried by a complete event. The
// list-valued fields stay raw so that one malformed item can be dropped
// without discarding its siblings; the state sub-object is decoded
// all-or-nothing by the session store.
type TurnPayload struct {
	NextStep      string            `json:"next_step,omitempty"`
	SessionID     string            `json:"session_id,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	State         json.RawMessage   `json:"state,omitempty"`
	Attractions   []json.RawMessage `json:"attractions,omitempty"`
	MapData       []json.RawMessage `json:"map_data,omitempty"`
	Itinerary     []json.RawMessage `json:"itinerary,omitempty"`
	Budget        json.RawMessage   `json:"budget,omitempty"`
	Response      string            `json:"response,omitempty"`
	OptimalRoute  []json.RawMessage `json:"optimal_route,omitempty"`
}

// TurnRequest carries one user turn to the streaming endpoint.
type TurnRequest struct {
	Step                      string
	UserInput                 string
	SessionID                 string
	SelectedAttractionIDs     []string
	AIRecommendationGenerated *bool
	UserInputProcessed        *bool
}

var validate = validator.New()

// DecodeAttraction decodes one attraction item. Malformed coordinates
// degrade to a nil location; anything structurally wrong (or missing id or
// name) is an error and the caller skips the item.
func DecodeAttraction(raw json.RawMessage) (Attraction, error) {
	var wire struct {
		ID                string          `json:"id" validate:"required"`
		Name              string          `json:"name" validate:"required"`
		Address           string          `json:"address"`
		Category          string          `json:"category"`
		Rating            *float64        `json:"rating"`
		UserRatingsTotal  *int            `json:"user_ratings_total"`
		PriceLevel        *int            `json:"price_level" validate:"omitempty,gte=0"`
		EstimatedDuration *float64        `json:"estimated_duration"`
		ImageURL          *string         `json:"image_url"`
		Description       string          `json:"description"`
		Location          json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Attraction{}, fmt.Errorf("malformed attraction item: %w", err)
	}
	if err := validate.Struct(&wire); err != nil {
		return Attraction{}, fmt.Errorf("invalid attraction item: %w", err)
	}

	return Attraction{
		ID:                wire.ID,
		Name:              wire.Name,
		Address:           wire.Address,
		Category:          wire.Category,
		Rating:            wire.Rating,
		UserRatingsTotal:  wire.UserRatingsTotal,
		PriceLevel:        wire.PriceLevel,
		EstimatedDuration: wire.EstimatedDuration,
		ImageURL:          wire.ImageURL,
		Description:       wire.Description,
		Location:          ParseLocation(wire.Location),
	}, nil
}

// DecodeMapPoint decodes one map_data item. Unlike attractions, a map point
// exists only to be plotted, so a missing or non-numeric coordinate pair is
// an error.
func DecodeMapPoint(raw json.RawMessage) (MapPoint, error) {
	var wire struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Address  string          `json:"address"`
		Rating   *float64        `json:"rating"`
		Location json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return MapPoint{}, fmt.Errorf("malformed map item: %w", err)
	}
	loc := ParseLocation(wire.Location)
	if loc == nil {
		return MapPoint{}, fmt.Errorf("map item %q has no valid location", wire.Name)
	}

	return MapPoint{
		ID:       wire.ID,
		Name:     wire.Name,
		Address:  wire.Address,
		Rating:   wire.Rating,
		Location: *loc,
	}, nil
}

// DecodeRouteStop decodes one optimal_route stop. A stop with a bad location
// is kept (it still occupies a sequence number); day defaults to 1.
func DecodeRouteStop(raw json.RawMessage) (RouteStop, error) {
	var wire struct {
		Name     string          `json:"name"`
		Day      int             `json:"day"`
		Location json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return RouteStop{}, fmt.Errorf("malformed route stop: %w", err)
	}
	day := wire.Day
	if day < 1 {
		day = 1
	}

	return RouteStop{
		Name:     wire.Name,
		Day:      day,
		Location: ParseLocation(wire.Location),
	}, nil
}

// DecodeItineraryDay decodes one itinerary day item.
func DecodeItineraryDay(raw json.RawMessage) (ItineraryDay, error) {
	var day ItineraryDay
	if err := json.Unmarshal(raw, &day); err != nil {
		return ItineraryDay{}, fmt.Errorf("malformed itinerary day: %w", err)
	}
	return day, nil
}

// DecodeBudget decodes the budget record of a complete payload.
func DecodeBudget(raw json.RawMessage) (*Budget, error) {
	var b Budget
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("malformed budget: %w", err)
	}
	return &b, nil
}
