package mapsync

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/models"
)

// Synchronizer keeps the map's selection markers consistent with the
// selected-attraction set: at most one marker per attraction id, and only
// for attractions with a valid location. Not safe for concurrent use on its
// own; the engine serializes access.
type Synchronizer struct {
	view    interfaces.MapView
	logger  arbor.ILogger
	markers map[string]models.Location
}

// NewSynchronizer creates a marker synchronizer over the given map surface.
func NewSynchronizer(view interfaces.MapView, logger arbor.ILogger) *Synchronizer {
	return &Synchronizer{
		view:    view,
		logger:  logger,
		markers: make(map[string]models.Location),
	}
}

// Add places the selection marker for an attraction. A marker already live
// for the same id is replaced, never duplicated. Attractions without a valid
// location get no marker; the selection itself is unaffected.
func (s *Synchronizer) Add(a models.Attraction) {
	if a.Location == nil {
		s.logger.Debug().
			Str("attraction_id", a.ID).
			Str("name", a.Name).
			Msg("Selected attraction has no valid location, skipping marker")
		return
	}

	if _, exists := s.markers[a.ID]; exists {
		s.view.RemoveMarker(a.ID)
	}
	s.markers[a.ID] = *a.Location
	s.view.AddMarker(models.Marker{
		AttractionID: a.ID,
		Name:         a.Name,
		Category:     a.Category,
		Location:     *a.Location,
	})
	s.refit()
}

// Remove drops the selection marker for an attraction id, if one is live.
func (s *Synchronizer) Remove(attractionID string) {
	if _, exists := s.markers[attractionID]; !exists {
		return
	}
	delete(s.markers, attractionID)
	s.view.RemoveMarker(attractionID)
	s.refit()
}

// Clear drops every selection marker.
func (s *Synchronizer) Clear() {
	for id := range s.markers {
		s.view.RemoveMarker(id)
	}
	s.markers = make(map[string]models.Location)
}

// Has reports whether a marker is live for the given attraction id.
func (s *Synchronizer) Has(attractionID string) bool {
	_, ok := s.markers[attractionID]
	return ok
}

// Plot replaces the exploration layer with the given points and frames the
// view around them. With no valid points the view falls back to the default
// city view.
func (s *Synchronizer) Plot(points []models.MapPoint) {
	s.view.PlotPoints(points)

	if len(points) == 0 {
		s.view.SetDefaultView()
		return
	}
	locs := make([]models.Location, 0, len(points))
	for _, p := range points {
		locs = append(locs, p.Location)
	}
	s.view.FitBounds(models.BoundsOf(locs))
}

// refit reframes the view around the remaining selection markers. When the
// last marker goes the view is left where it was.
func (s *Synchronizer) refit() {
	if len(s.markers) == 0 {
		return
	}
	locs := make([]models.Location, 0, len(s.markers))
	for _, loc := range s.markers {
		locs = append(locs, loc)
	}
	s.view.FitBounds(models.BoundsOf(locs))
}
