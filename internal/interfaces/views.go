package interfaces

import "github.com/ternarybob/itinera/internal/models"

// ChatView is the transcript surface. Implementations forward operations to
// whatever is rendering the conversation (the WebSocket bridge in the default
// wiring); they must tolerate having no connected client.
type ChatView interface {
	// AppendUserMessage adds a finished user message to the transcript.
	AppendUserMessage(text string)

	// BeginAssistantMessage opens a new assistant entry and returns its id.
	// The entry starts empty and is filled by UpdateAssistantMessage as the
	// streamed response grows.
	BeginAssistantMessage() string

	// UpdateAssistantMessage replaces the rendered HTML of an open entry.
	UpdateAssistantMessage(id string, html string)

	// AppendAssistantMessage adds a complete assistant message in one step.
	AppendAssistantMessage(html string)

	// Clear empties the transcript.
	Clear()
}

// PlannerView is the dialogue-progress surface: step navigation, missing
// fields, itinerary, budget and the final confirmation.
type PlannerView interface {
	HighlightStep(step string)
	ShowMissingFields(fields []string)
	ClearMissingFields()
	ShowItinerary(days []models.ItineraryDay)
	ShowBudget(budget *models.Budget)
	ShowConfirmation(html string)

	// SetBusy raises or lowers the busy indicator for the open exchange.
	SetBusy(busy bool)
}

// BrowserView renders the one-attraction-per-page browser and its
// selection-dependent chrome.
type BrowserView interface {
	ShowAttraction(page models.AttractionPage)
	ShowEmpty()
	SetConfirmVisible(visible bool)

	// SetNearbyInfo fills the nearby-places slot of the given attraction
	// with rendered HTML. Results for attractions no longer displayed are
	// never delivered here; staleness is filtered upstream.
	SetNearbyInfo(attractionID string, html string)
	SetNearbyError(attractionID string, message string)

	ShowSelected(selected []models.Attraction)
}

// MapView is the map surface. It distinguishes three layers: selection
// markers, the exploration layer plotted from map_data, and the route layer.
type MapView interface {
	AddMarker(m models.Marker)
	RemoveMarker(attractionID string)

	// PlotPoints replaces the exploration layer wholesale.
	PlotPoints(points []models.MapPoint)

	ClearRoute()
	DrawRoutePath(path []models.Location)
	AddRouteStop(m models.RouteMarker)

	FitBounds(b models.Bounds)
	SetDefaultView()
}
