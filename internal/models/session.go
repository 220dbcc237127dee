package models

// Dialogue steps the client branches on. The backend owns the full set;
// everything else is forwarded to the step navigation as an opaque value.
const (
	StepChat      = "chat"
	StepRecommend = "recommend"
	StepItinerary = "itinerary"
	StepConfirm   = "confirm"
)

// SessionState is the canonical state of one planning session. It is owned
// by the session store and mutated only through Merge/Reset and the explicit
// selection operations.
type SessionState struct {
	Step                      string
	SessionID                 string
	UserInfo                  map[string]any
	Attractions               []Attraction
	SelectedAttractions       []Attraction
	Itinerary                 []ItineraryDay
	Budget                    *Budget
	AIRecommendationGenerated bool
	UserInputProcessed        bool
}

// NewSessionState returns the initial empty session.
func NewSessionState() SessionState {
	return SessionState{
		Step:     StepChat,
		UserInfo: map[string]any{},
	}
}

// StatePatch is the partial state update nested in a complete payload under
// the "state" key. Pointer fields distinguish "absent" from a zero value:
// an omitted field leaves the store's prior value untouched, an included
// field replaces it wholesale.
type StatePatch struct {
	UserInfo                  map[string]any `json:"user_info"`
	Attractions               []Attraction   `json:"attractions"`
	SelectedAttractions       []Attraction   `json:"selected_attractions"`
	Itinerary                 []ItineraryDay `json:"itinerary"`
	Budget                    *Budget        `json:"budget"`
	AIRecommendationGenerated *bool          `json:"ai_recommendation_generated"`
	UserInputProcessed        *bool          `json:"user_input_processed"`
}

// Attraction is a recommendable point of interest. An attraction without a
// valid location stays browsable and selectable; it just never gets a map
// marker.
type Attraction struct {
	ID                string    `json:"id" validate:"required"`
	Name              string    `json:"name" validate:"required"`
	Address           string    `json:"address,omitempty"`
	Category          string    `json:"category,omitempty"`
	Rating            *float64  `json:"rating,omitempty"`
	UserRatingsTotal  *int      `json:"user_ratings_total,omitempty"`
	PriceLevel        *int      `json:"price_level,omitempty" validate:"omitempty,gte=0"`
	EstimatedDuration *float64  `json:"estimated_duration,omitempty"`
	ImageURL          *string   `json:"image_url"`
	Description       string    `json:"description,omitempty"`
	Location          *Location `json:"location,omitempty"`
}

// ItineraryDay is one day of a generated itinerary.
type ItineraryDay struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	Spots []Spot `json:"spots"`
}

// Spot is one scheduled visit within an itinerary day.
type Spot struct {
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Category   string `json:"category,omitempty"`
	PriceLevel *int   `json:"price_level,omitempty"`
}

// Budget is the estimated trip cost breakdown. CarRental and FuelCost are
// present only for rental-based trips.
type Budget struct {
	Total         float64  `json:"total"`
	Accommodation float64  `json:"accommodation"`
	Food          float64  `json:"food"`
	Transport     float64  `json:"transport"`
	Attractions   float64  `json:"attractions"`
	CarRental     *float64 `json:"car_rental,omitempty"`
	FuelCost      *float64 `json:"fuel_cost,omitempty"`
}

// RouteStop is one point of an optimized multi-day route. Stops with no
// valid location are kept for numbering but skipped when drawing.
type RouteStop struct {
	Name     string
	Day      int
	Location *Location
}

// MapPoint is one location-bearing item of a map_data payload, plotted on
// the exploration layer independently of the candidate attraction list.
type MapPoint struct {
	ID       string
	Name     string
	Address  string
	Rating   *float64
	Location Location
}

// Marker is a selection marker keyed by attraction id.
type Marker struct {
	AttractionID string   `json:"attraction_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	Location     Location `json:"location"`
}

// RouteMarker is a numbered stop marker on the route layer. Number is the
// 1-based position in the route as delivered, counting stops that could not
// be drawn.
type RouteMarker struct {
	Number   int      `json:"number"`
	Day      int      `json:"day"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// AttractionPage is the browser's current page, ready for rendering.
type AttractionPage struct {
	Attraction Attraction `json:"attraction"`
	Index      int        `json:"index"`
	Total      int        `json:"total"`
	Selected   bool       `json:"selected"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
}

// Clone returns a deep-enough copy of the state for read-only callers.
// Collection fields are replaced wholesale by every mutation, so sharing
// the backing arrays with a snapshot is safe.
func (s SessionState) Clone() SessionState {
	out := s
	out.UserInfo = make(map[string]any, len(s.UserInfo))
	for k, v := range s.UserInfo {
		out.UserInfo[k] = v
	}
	return out
}

// SelectedIDs returns the ids of the selected attractions in selection order.
func (s SessionState) SelectedIDs() []string {
	ids := make([]string, 0, len(s.SelectedAttractions))
	for _, a := range s.SelectedAttractions {
		ids = append(ids, a.ID)
	}
	return ids
}

// HasSelected reports whether the given attraction id is currently selected.
func (s SessionState) HasSelected(id string) bool {
	for _, a := range s.SelectedAttractions {
		if a.ID == id {
			return true
		}
	}
	return false
}
