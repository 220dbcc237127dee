package runtime

import (
	"encoding/json"
	"strings"

	"github.com/ternarybob/itinera/internal/models"
)

// consumeTurn drains one streaming exchange. Each event is applied under the
// engine lock so chunk rendering, the final payload dispatch and any user
// action interleave safely.
func (e *Engine) consumeTurn(entryID string, events <-chan models.TurnEvent) {
	var buf strings.Builder
	finished := false

	for event := range events {
		e.mu.Lock()
		switch event.Type {
		case models.TurnEventChunk:
			buf.WriteString(event.Content)
			e.chat.UpdateAssistantMessage(entryID, e.renderer.Render(buf.String()))

		case models.TurnEventComplete:
			e.applyComplete(event.Payload)
			e.finishTurn()
			finished = true

		case models.TurnEventError:
			e.logger.Error().Str("detail", event.Err).Msg("Turn failed")
			e.chat.UpdateAssistantMessage(entryID, failureMessage)
			e.finishTurn()
			finished = true
		}
		e.mu.Unlock()
	}

	if !finished {
		// The client guarantees a terminal event, so this is a bug guard.
		e.mu.Lock()
		e.logger.Warn().Msg("Turn stream closed without a terminal event")
		e.finishTurn()
		e.mu.Unlock()
	}
}

// finishTurn closes the open exchange. Caller holds the lock.
func (e *Engine) finishTurn() {
	e.turnOpen = false
	e.planner.SetBusy(false)
}

// applyComplete dispatches a complete payload to the store and the views.
// Field order mirrors the dependency chain: step and session first, then
// state, then the view-driving collections. Caller holds the lock.
func (e *Engine) applyComplete(p *models.TurnPayload) {
	if p == nil {
		return
	}

	if p.NextStep != "" {
		e.store.SetStep(p.NextStep)
		e.planner.HighlightStep(p.NextStep)
	}
	e.store.AdoptSessionID(p.SessionID)

	if len(p.MissingFields) > 0 {
		e.planner.ShowMissingFields(p.MissingFields)
	} else {
		e.planner.ClearMissingFields()
	}

	e.applyStatePatch(p.State)

	if p.Attractions != nil {
		e.browser.Load(e.decodeAttractions(p.Attractions))
	}
	if p.MapData != nil {
		e.markers.Plot(e.decodeMapPoints(p.MapData))
	}
	if p.Itinerary != nil {
		e.planner.ShowItinerary(e.decodeItinerary(p.Itinerary))
	}
	if len(p.Budget) > 0 && string(p.Budget) != "null" {
		budget, err := models.DecodeBudget(p.Budget)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Skipping malformed budget payload")
		} else {
			e.planner.ShowBudget(budget)
		}
	}
	if p.Response != "" {
		e.planner.ShowConfirmation(e.renderer.Render(p.Response))
	}
	if len(p.OptimalRoute) > 0 {
		e.route.Draw(e.decodeRouteStops(p.OptimalRoute))
	}
}

// applyStatePatch merges the state sub-object and, when the merge rewrote
// the selection, rebuilds the selection markers and the selected list.
func (e *Engine) applyStatePatch(raw []byte) {
	if len(raw) == 0 {
		return
	}

	before := e.store.State().SelectedIDs()
	if err := e.store.Merge(raw); err != nil {
		e.logger.Warn().Err(err).Msg("State patch rejected, keeping prior session state")
		return
	}
	after := e.store.State().SelectedIDs()

	if !equalIDs(before, after) {
		e.markers.Clear()
		for _, a := range e.store.Selected() {
			e.markers.Add(a)
		}
		e.browser.Refresh()
	}
}

func (e *Engine) decodeAttractions(items []json.RawMessage) []models.Attraction {
	out := make([]models.Attraction, 0, len(items))
	for _, raw := range items {
		a, err := models.DecodeAttraction(raw)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Skipping invalid attraction item")
			continue
		}
		out = append(out, a)
	}
	return out
}

func (e *Engine) decodeMapPoints(items []json.RawMessage) []models.MapPoint {
	out := make([]models.MapPoint, 0, len(items))
	for _, raw := range items {
		p, err := models.DecodeMapPoint(raw)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Skipping invalid map item")
			continue
		}
		out = append(out, p)
	}
	return out
}

func (e *Engine) decodeItinerary(items []json.RawMessage) []models.ItineraryDay {
	out := make([]models.ItineraryDay, 0, len(items))
	for _, raw := range items {
		day, err := models.DecodeItineraryDay(raw)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Skipping invalid itinerary day")
			continue
		}
		out = append(out, day)
	}
	return out
}

func (e *Engine) decodeRouteStops(items []json.RawMessage) []models.RouteStop {
	out := make([]models.RouteStop, 0, len(items))
	for _, raw := range items {
		stop, err := models.DecodeRouteStop(raw)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Skipping invalid route stop")
			continue
		}
		out = append(out, stop)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
