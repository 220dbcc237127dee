package mapsync

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/models"
)

// RouteRenderer draws the optimized route layer: one polyline over the stops
// that carry a valid location, in delivered order, plus a numbered marker
// per drawable stop. Stop numbers follow the delivered order and count
// undrawable stops, so the numbering matches the backend's sequence.
type RouteRenderer struct {
	view   interfaces.MapView
	logger arbor.ILogger
	drawn  bool
}

// NewRouteRenderer creates a route renderer over the given map surface.
func NewRouteRenderer(view interfaces.MapView, logger arbor.ILogger) *RouteRenderer {
	return &RouteRenderer{view: view, logger: logger}
}

// Draw replaces the route layer with the given stops. Fewer than two stops
// is not a route; the existing layer is left alone.
func (r *RouteRenderer) Draw(stops []models.RouteStop) {
	if len(stops) < 2 {
		r.logger.Debug().Int("stops", len(stops)).Msg("Route too short to draw")
		return
	}

	r.view.ClearRoute()
	r.drawn = true

	path := make([]models.Location, 0, len(stops))
	markers := make([]models.RouteMarker, 0, len(stops))
	for i, stop := range stops {
		if stop.Location == nil {
			r.logger.Debug().
				Str("name", stop.Name).
				Int("position", i+1).
				Msg("Route stop has no valid location, skipping")
			continue
		}
		path = append(path, *stop.Location)
		markers = append(markers, models.RouteMarker{
			Number:   i + 1,
			Day:      stop.Day,
			Name:     stop.Name,
			Location: *stop.Location,
		})
	}

	if len(path) >= 2 {
		r.view.DrawRoutePath(path)
	}
	for _, m := range markers {
		r.view.AddRouteStop(m)
	}

	// Frame the drawn route; with nothing drawable the view stays put.
	if len(path) > 0 {
		r.view.FitBounds(models.BoundsOf(path))
	}
}

// Clear removes the route layer if one has been drawn.
func (r *RouteRenderer) Clear() {
	if !r.drawn {
		return
	}
	r.view.ClearRoute()
	r.drawn = false
}
