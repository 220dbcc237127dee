package handlers

import (
	"fmt"

	"github.com/ternarybob/itinera/internal/models"
)

// budgetPayload carries the budget figures pre-formatted to two decimals.
// Optional lines are omitted when the backend did not supply them.
type budgetPayload struct {
	Total         string `json:"total"`
	Accommodation string `json:"accommodation"`
	Food          string `json:"food"`
	Transport     string `json:"transport"`
	Attractions   string `json:"attractions"`
	CarRental     string `json:"car_rental,omitempty"`
	FuelCost      string `json:"fuel_cost,omitempty"`
}

func formatBudget(b *models.Budget) budgetPayload {
	if b == nil {
		return budgetPayload{}
	}
	p := budgetPayload{
		Total:         formatAmount(b.Total),
		Accommodation: formatAmount(b.Accommodation),
		Food:          formatAmount(b.Food),
		Transport:     formatAmount(b.Transport),
		Attractions:   formatAmount(b.Attractions),
	}
	if b.CarRental != nil {
		p.CarRental = formatAmount(*b.CarRental)
	}
	if b.FuelCost != nil {
		p.FuelCost = formatAmount(*b.FuelCost)
	}
	return p
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
