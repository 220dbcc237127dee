package browser

import (
	"fmt"
	"strings"

	"github.com/ternarybob/itinera/internal/models"
)

// formatNearby renders a nearby-places result as markdown for the
// attraction's info slot.
func formatNearby(result *models.NearbyResult) string {
	if result == nil || len(result.Restaurants) == 0 {
		return "No restaurants found near this attraction."
	}

	var sb strings.Builder
	sb.WriteString("**Restaurants nearby:**\n\n")
	for _, r := range result.Restaurants {
		sb.WriteString("- **")
		sb.WriteString(r.Name)
		sb.WriteString("**")
		if r.Type != "" {
			fmt.Fprintf(&sb, " (%s)", r.Type)
		}
		if r.Rating != nil {
			fmt.Fprintf(&sb, " · %.1f★", *r.Rating)
		}
		if r.PriceLevel != nil && *r.PriceLevel > 0 {
			sb.WriteString(" ")
			sb.WriteString(strings.Repeat("$", *r.PriceLevel))
		}
		if r.Address != "" {
			fmt.Fprintf(&sb, "\n  %s", r.Address)
		}
		if len(r.Photos) > 0 && r.Photos[0].URL != "" {
			fmt.Fprintf(&sb, "\n  ![%s](%s)", r.Name, r.Photos[0].URL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
