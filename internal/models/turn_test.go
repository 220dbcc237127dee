package models

import (
	"encoding/json"
	"testing"
)

func TestDecodeAttraction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, a Attraction)
	}{
		{
			name: "full item",
			raw: `{"id": "a1", "name": "Louvre", "address": "Rue de Rivoli",
				"category": "museum", "rating": 4.7, "user_ratings_total": 200000,
				"price_level": 2, "estimated_duration": 3.5,
				"location": {"lat": 48.8606, "lng": 2.3376}}`,
			check: func(t *testing.T, a Attraction) {
				if a.ID != "a1" || a.Name != "Louvre" {
					t.Errorf("identity fields wrong: %+v", a)
				}
				if a.Rating == nil || *a.Rating != 4.7 {
					t.Errorf("rating = %v, want 4.7", a.Rating)
				}
				if a.Location == nil || a.Location.Lat != 48.8606 {
					t.Errorf("location = %v, want lat 48.8606", a.Location)
				}
			},
		},
		{
			name: "invalid location degrades to nil",
			raw:  `{"id": "a2", "name": "Hidden Gem", "location": {"lat": "oops"}}`,
			check: func(t *testing.T, a Attraction) {
				if a.Location != nil {
					t.Errorf("location = %v, want nil", a.Location)
				}
			},
		},
		{
			name:    "missing id is rejected",
			raw:     `{"name": "Anonymous"}`,
			wantErr: true,
		},
		{
			name:    "missing name is rejected",
			raw:     `{"id": "a3"}`,
			wantErr: true,
		},
		{
			name:    "negative price level is rejected",
			raw:     `{"id": "a4", "name": "Cheap", "price_level": -1}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `"just a string"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAttraction(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeAttraction accepted %s", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAttraction: %v", err)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestDecodeMapPoint(t *testing.T) {
	p, err := DecodeMapPoint(json.RawMessage(
		`{"id": "m1", "name": "Eiffel Tower", "rating": 4.6, "location": {"lat": 48.8584, "lng": 2.2945}}`))
	if err != nil {
		t.Fatalf("DecodeMapPoint: %v", err)
	}
	if p.Name != "Eiffel Tower" || p.Location.Lng != 2.2945 {
		t.Errorf("unexpected point %+v", p)
	}

	if _, err := DecodeMapPoint(json.RawMessage(`{"name": "Nowhere"}`)); err == nil {
		t.Error("point without location should be rejected")
	}
	if _, err := DecodeMapPoint(json.RawMessage(`{"name": "Bad", "location": {"lat": null, "lng": 2.0}}`)); err == nil {
		t.Error("point with null lat should be rejected")
	}
}

func TestDecodeRouteStop(t *testing.T) {
	s, err := DecodeRouteStop(json.RawMessage(
		`{"name": "Notre-Dame", "day": 2, "location": {"lat": 48.853, "lng": 2.3499}}`))
	if err != nil {
		t.Fatalf("DecodeRouteStop: %v", err)
	}
	if s.Day != 2 || s.Location == nil {
		t.Errorf("unexpected stop %+v", s)
	}

	s, err = DecodeRouteStop(json.RawMessage(`{"name": "No Day", "location": {"lat": 1, "lng": 2}}`))
	if err != nil {
		t.Fatalf("DecodeRouteStop: %v", err)
	}
	if s.Day != 1 {
		t.Errorf("day = %d, want default 1", s.Day)
	}

	s, err = DecodeRouteStop(json.RawMessage(`{"name": "Lost", "day": 1}`))
	if err != nil {
		t.Fatalf("stop without location should still decode: %v", err)
	}
	if s.Location != nil {
		t.Errorf("location = %v, want nil", s.Location)
	}
}

func TestTurnPayloadDecoding(t *testing.T) {
	raw := `{
		"type": "complete",
		"next_step": "recommend",
		"session_id": "sess-42",
		"missing_fields": ["budget"],
		"state": {"user_info": {"city": "Paris"}},
		"attractions": [{"id": "a1", "name": "Louvre"}, {"bogus": true}],
		"response": "Here are some ideas."
	}`

	var p TurnPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.NextStep != "recommend" || p.SessionID != "sess-42" {
		t.Errorf("header fields wrong: %+v", p)
	}
	if len(p.MissingFields) != 1 || p.MissingFields[0] != "budget" {
		t.Errorf("missing_fields = %v", p.MissingFields)
	}
	if len(p.Attractions) != 2 {
		t.Fatalf("raw attraction count = %d, want 2", len(p.Attractions))
	}

	// The malformed sibling decodes to an error without touching the good one.
	if _, err := DecodeAttraction(p.Attractions[0]); err != nil {
		t.Errorf("first attraction should decode: %v", err)
	}
	if _, err := DecodeAttraction(p.Attractions[1]); err == nil {
		t.Error("second attraction should be rejected")
	}
}

func TestDecodeBudget(t *testing.T) {
	b, err := DecodeBudget(json.RawMessage(
		`{"total": 1200.5, "accommodation": 600, "food": 300, "transport": 150, "attractions": 150.5, "car_rental": 200}`))
	if err != nil {
		t.Fatalf("DecodeBudget: %v", err)
	}
	if b.Total != 1200.5 {
		t.Errorf("total = %v, want 1200.5", b.Total)
	}
	if b.CarRental == nil || *b.CarRental != 200 {
		t.Errorf("car_rental = %v, want 200", b.CarRental)
	}
	if b.FuelCost != nil {
		t.Errorf("fuel_cost = %v, want nil", b.FuelCost)
	}

	if _, err := DecodeBudget(json.RawMessage(`[1, 2]`)); err == nil {
		t.Error("non-object budget should be rejected")
	}
}
