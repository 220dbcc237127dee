package session

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/models"
)

// Store owns the canonical session state. It is not safe for concurrent use
// on its own; the engine serializes access behind its mutex.
type Store struct {
	logger arbor.ILogger
	state  models.SessionState
}

// NewStore creates a store holding the initial empty session.
func NewStore(logger arbor.ILogger) *Store {
	return &Store{
		logger: logger,
		state:  models.NewSessionState(),
	}
}

// State returns a snapshot of the current session state.
func (s *Store) State() models.SessionState {
	return s.state.Clone()
}

// Merge applies the state sub-object of a complete payload. The patch is
// decoded strictly: one structurally invalid field rejects the whole patch
// and the prior state survives untouched. Included fields replace the
// store's value wholesale; omitted fields stay as they were.
func (s *Store) Merge(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var patch models.StatePatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return fmt.Errorf("state patch rejected: %w", err)
	}

	if patch.UserInfo != nil {
		s.state.UserInfo = patch.UserInfo
	}
	if patch.Attractions != nil {
		s.state.Attractions = patch.Attractions
	}
	if patch.SelectedAttractions != nil {
		s.state.SelectedAttractions = dedupeByID(patch.SelectedAttractions)
	}
	if patch.Itinerary != nil {
		s.state.Itinerary = patch.Itinerary
	}
	if patch.Budget != nil {
		s.state.Budget = patch.Budget
	}
	if patch.AIRecommendationGenerated != nil {
		s.state.AIRecommendationGenerated = *patch.AIRecommendationGenerated
	}
	if patch.UserInputProcessed != nil {
		s.state.UserInputProcessed = *patch.UserInputProcessed
	}

	s.logger.Debug().
		Str("step", s.state.Step).
		Int("attractions", len(s.state.Attractions)).
		Int("selected", len(s.state.SelectedAttractions)).
		Msg("Session state merged")
	return nil
}

// Reset restores the initial empty session. The session id is discarded; the
// backend issues a fresh one on the next turn.
func (s *Store) Reset() {
	s.state = models.NewSessionState()
}

// SetStep records the current dialogue step.
func (s *Store) SetStep(step string) {
	s.state.Step = step
}

// AdoptSessionID records the backend-issued session id. An empty id is
// ignored so a payload without one cannot clear an established session.
func (s *Store) AdoptSessionID(id string) {
	if id == "" {
		return
	}
	s.state.SessionID = id
}

// SetAttractions replaces the candidate attraction list wholesale.
func (s *Store) SetAttractions(attractions []models.Attraction) {
	s.state.Attractions = attractions
}

// Select adds the attraction to the selection. Returns false when the id is
// already selected.
func (s *Store) Select(a models.Attraction) bool {
	if s.state.HasSelected(a.ID) {
		return false
	}
	s.state.SelectedAttractions = append(s.state.SelectedAttractions, a)
	return true
}

// Deselect removes the attraction with the given id from the selection.
// Returns false when the id was not selected.
func (s *Store) Deselect(id string) bool {
	for i, a := range s.state.SelectedAttractions {
		if a.ID == id {
			s.state.SelectedAttractions = append(
				s.state.SelectedAttractions[:i:i],
				s.state.SelectedAttractions[i+1:]...)
			return true
		}
	}
	return false
}

// HasSelected reports whether the given attraction id is currently selected.
func (s *Store) HasSelected(id string) bool {
	return s.state.HasSelected(id)
}

// Selected returns the current selection in selection order.
func (s *Store) Selected() []models.Attraction {
	out := make([]models.Attraction, len(s.state.SelectedAttractions))
	copy(out, s.state.SelectedAttractions)
	return out
}

func dedupeByID(attractions []models.Attraction) []models.Attraction {
	seen := make(map[string]bool, len(attractions))
	out := attractions[:0:0]
	for _, a := range attractions {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}
