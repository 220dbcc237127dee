package interfaces

import (
	"context"

	"github.com/ternarybob/itinera/internal/models"
)

// PlanningClient talks to the external planning backend.
type PlanningClient interface {
	// StreamTurn opens one streaming exchange for a user turn. The returned
	// channel delivers events in arrival order and is closed after the
	// terminal event (complete or error). Transport failures surface as a
	// synthesized error event, never as a silent close.
	StreamTurn(ctx context.Context, req *models.TurnRequest) (<-chan models.TurnEvent, error)

	// Nearby looks up restaurants around the given location.
	Nearby(ctx context.Context, loc models.Location) (*models.NearbyResult, error)

	// Reset clears the backend-side session.
	Reset(ctx context.Context) error
}

// NearbyProvider is the lookup subset of PlanningClient used by the
// attraction browser.
type NearbyProvider interface {
	Nearby(ctx context.Context, loc models.Location) (*models.NearbyResult, error)
}
