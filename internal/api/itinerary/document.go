package itinerary

import "github.com/FACorreiaa/go-ai-trip-planner/internal/types"

// ToDocument renders plan in the shape the model is asked to produce, so
// that Normalize(ToDocument(p)) returns p for any plan built by Normalize.
func ToDocument(plan types.CanonicalTripPlan) map[string]any {
	hotels := make([]any, 0, len(plan.HotelOptions))
	for _, h := range plan.HotelOptions {
		hotels = append(hotels, map[string]any{
			"name":                     h.Name,
			"address":                  h.Address,
			"pricing_per_night_approx": hotelPriceDocument(h.PriceRange),
			"rating":                   h.Rating,
			"description":              h.Description,
			"image_url":                h.ImageURL,
		})
	}

	days := make([]any, 0, len(plan.Itinerary))
	for _, d := range plan.Itinerary {
		activities := make([]any, 0, len(d.Activities))
		for _, a := range d.Activities {
			activities = append(activities, map[string]any{
				"activity":              a.Name,
				"description":           a.Description,
				"time_of_day":           a.TimeOfDay,
				"travel_time":           a.TravelTime,
				"ticket_pricing_approx": a.TicketPrice,
				"image_url":             a.ImageURL,
			})
		}
		days = append(days, map[string]any{
			"day":   d.DayNumber,
			"title": d.Title,
			"plan":  activities,
		})
	}

	return map[string]any{
		"location":           plan.Location,
		"best_time_to_visit": plan.BestTimeToVisit,
		"travel_plan": map[string]any{
			"duration":        plan.DurationLabel,
			"budget_category": plan.BudgetCategory,
			"hotel_options":   hotels,
			"itinerary":       days,
		},
	}
}

func hotelPriceDocument(p types.PriceRange) any {
	if p.Min == "" && p.Max == "" {
		if p.Display == PriceUnavailable {
			return nil
		}
		return p.Display
	}
	doc := map[string]any{}
	if p.Min != "" {
		doc["min"] = p.Min
	}
	if p.Max != "" {
		doc["max"] = p.Max
	}
	return doc
}
