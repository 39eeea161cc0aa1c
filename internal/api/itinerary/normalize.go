// Package itinerary turns model output of any known shape into a CanonicalTripPlan.
package itinerary

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

const (
	FreeMarker       = "Free"
	PriceUnavailable = "Price not available"
	RatingUnknown    = "N/A"
)

// Ordered lookup paths. The first non-empty array wins.
var itineraryPaths = [][]string{
	{"tripData", "itinerary"},
	{"tripData", "travel_plan", "itinerary"},
	{"travel_plan", "itinerary"},
	{"itinerary"},
	{"data", "tripData", "itinerary"},
	{"doc", "tripData", "itinerary"},
	{"days"},
}

var hotelPaths = [][]string{
	{"tripData", "travel_plan", "hotel_options"},
	{"tripData", "hotel_options"},
	{"travel_plan", "hotel_options"},
	{"hotel_options"},
	{"hotels"},
	{"data", "tripData", "hotel_options"},
	{"doc", "tripData", "hotel_options"},
}

// Objects that may carry the plan-level scalar fields, in priority order.
var planRoots = [][]string{
	{},
	{"travel_plan"},
	{"tripData"},
	{"tripData", "travel_plan"},
	{"data", "tripData"},
	{"doc", "tripData"},
}

// Field alias tables. The first present non-empty alias wins.
var (
	locationAliases       = []string{"location", "destination", "city"}
	bestTimeAliases       = []string{"best_time_to_visit", "bestTimeToVisit", "best_time"}
	durationAliases       = []string{"duration", "trip_duration", "durationLabel"}
	budgetCategoryAliases = []string{"budget_category", "budgetCategory", "budget"}

	dayNumberAliases = []string{"day", "day_number", "dayNumber"}
	dayTitleAliases  = []string{"title", "theme", "day_title", "dayTitle"}
	dayPlanAliases   = []string{"plan", "activities", "schedule", "places", "items"}

	activityNameAliases = []string{
		"activity", "title", "placeName", "place_name", "name", "attraction",
		"location_name", "place", "locationName", "item", "itinerary_item", "activity_name",
	}
	activityDescriptionAliases = []string{"description", "details", "summary", "place_details", "placeDetails"}
	timeOfDayAliases           = []string{"time_range", "time_of_day", "timeOfDay", "time", "best_time_to_visit"}
	travelTimeAliases          = []string{"travel_time", "travelTime", "time_to_travel", "travel_duration"}
	ticketAliases              = []string{"ticket_pricing_approx", "ticket_price", "ticket_price_approx", "ticket_pricing", "ticketPrice", "price", "entry_fee"}
	imageAliases               = []string{"image_url", "imageUrl", "place_image_url", "image"}

	hotelNameAliases        = []string{"name", "hotel_name", "hotelName", "title"}
	hotelAddressAliases     = []string{"address", "hotel_address", "hotelAddress", "location"}
	hotelPriceAliases       = []string{"pricing_per_night_approx", "price_per_night", "pricing", "price_range", "price"}
	hotelRatingAliases      = []string{"rating", "stars"}
	hotelDescriptionAliases = []string{"description", "summary", "details"}
)

// Normalize builds the canonical plan from doc. It never fails: absent data
// yields empty slices and placeholder text.
func Normalize(doc any) types.CanonicalTripPlan {
	plan := types.CanonicalTripPlan{
		Location:        rootText(doc, locationAliases),
		BestTimeToVisit: rootText(doc, bestTimeAliases),
		DurationLabel:   rootText(doc, durationAliases),
		BudgetCategory:  rootText(doc, budgetCategoryAliases),
		HotelOptions:    normalizeHotels(findArray(doc, hotelPaths)),
		Itinerary:       normalizeDays(findItinerary(doc)),
	}
	return plan
}

func rootText(doc any, aliases []string) string {
	for _, root := range planRoots {
		v, ok := lookup(doc, root)
		if !ok {
			continue
		}
		m, ok := asMap(v)
		if !ok {
			continue
		}
		if s := firstText(m, aliases); s != "" {
			return s
		}
	}
	return ""
}

func findArray(doc any, paths [][]string) []any {
	for _, p := range paths {
		v, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if arr, ok := asSlice(v); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

func findItinerary(doc any) []any {
	if arr := findArray(doc, itineraryPaths); arr != nil {
		return arr
	}
	if arr, ok := asSlice(doc); ok && len(arr) > 0 {
		return arr
	}
	for _, p := range itineraryPaths {
		v, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if m, ok := asMap(v); ok && len(m) > 0 {
			return dayMapToArray(m)
		}
	}
	return nil
}

// dayMapToArray converts {"day1": {...}, "day2": [...]} into day wrappers
// ordered by the number embedded in each key, then by key.
func dayMapToArray(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, nb := dayNumber(a), dayNumber(b)
		switch {
		case na == nb:
			return strings.Compare(a, b)
		case na == 0:
			return 1
		case nb == 0:
			return -1
		}
		return na - nb
	})

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		n := dayNumber(k)
		v := m[k]
		if arr, ok := asSlice(v); ok {
			out = append(out, map[string]any{"day": n, "plan": arr})
			continue
		}
		day, ok := asMap(v)
		if !ok {
			continue
		}
		if _, has := firstOf(day, dayNumberAliases); !has && n > 0 {
			cp := maps.Clone(day)
			cp["day"] = n
			day = cp
		}
		out = append(out, day)
	}
	return out
}

// isFlat reports whether items are activities rather than days. A bare
// string counts as an activity name.
func isFlat(items []any) bool {
	if s, ok := items[0].(string); ok {
		return strings.TrimSpace(s) != ""
	}
	first, ok := asMap(items[0])
	if !ok {
		return false
	}
	if _, nested := nestedPlan(first); nested {
		return false
	}
	_, named := firstOf(first, activityNameAliases)
	return named
}

func nestedPlan(m map[string]any) ([]any, bool) {
	for _, key := range dayPlanAliases {
		if arr, ok := asSlice(m[key]); ok {
			return arr, true
		}
	}
	return nil, false
}

func normalizeDays(items []any) []types.DayPlan {
	if len(items) == 0 {
		return []types.DayPlan{}
	}
	if isFlat(items) {
		return regroup(items)
	}

	days := make([]types.DayPlan, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		n := 0
		if v, ok := firstOf(m, dayNumberAliases); ok {
			n = dayNumber(v)
		}
		if n == 0 {
			n = i + 1
		}
		plan, _ := nestedPlan(m)
		days = append(days, types.DayPlan{
			DayNumber:  n,
			Title:      dayTitle(m, n),
			Activities: normalizeActivities(plan),
		})
	}
	return days
}

// regroup buckets flat activities by declared day (default 1), keeping
// their order within a day, and sorts the days ascending.
func regroup(items []any) []types.DayPlan {
	var order []int
	buckets := make(map[int][]any)
	for _, item := range items {
		n := 1
		if m, ok := asMap(item); ok {
			if v, ok := firstOf(m, dayNumberAliases); ok {
				if d := dayNumber(v); d > 0 {
					n = d
				}
			}
		}
		if _, seen := buckets[n]; !seen {
			order = append(order, n)
		}
		buckets[n] = append(buckets[n], item)
	}
	slices.Sort(order)

	days := make([]types.DayPlan, 0, len(order))
	for _, n := range order {
		days = append(days, types.DayPlan{
			DayNumber:  n,
			Title:      fmt.Sprintf("Day %d", n),
			Activities: normalizeActivities(buckets[n]),
		})
	}
	return days
}

func dayTitle(m map[string]any, n int) string {
	if s := firstText(m, dayTitleAliases); s != "" {
		return s
	}
	return fmt.Sprintf("Day %d", n)
}

func normalizeActivities(items []any) []types.Activity {
	out := make([]types.Activity, 0, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, types.Activity{Name: s, TicketPrice: PriceUnavailable})
			}
			continue
		}
		m, ok := asMap(item)
		if !ok {
			continue
		}
		name := firstText(m, activityNameAliases)
		if name == "" {
			name = fmt.Sprintf("Activity %d", i+1)
		}
		ticket, _ := firstOf(m, ticketAliases)
		out = append(out, types.Activity{
			Name:        name,
			Description: firstText(m, activityDescriptionAliases),
			TimeOfDay:   firstText(m, timeOfDayAliases),
			TravelTime:  firstText(m, travelTimeAliases),
			TicketPrice: TicketPrice(ticket),
			ImageURL:    firstText(m, imageAliases),
		})
	}
	return out
}

func normalizeHotels(items []any) []types.Hotel {
	out := make([]types.Hotel, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		name := firstText(m, hotelNameAliases)
		if name == "" {
			name = fmt.Sprintf("Hotel %d", i+1)
		}
		rating := firstText(m, hotelRatingAliases)
		if rating == "" {
			rating = RatingUnknown
		}
		price, _ := firstOf(m, hotelPriceAliases)
		out = append(out, types.Hotel{
			Name:        name,
			Address:     firstText(m, hotelAddressAliases),
			PriceRange:  HotelPrice(price),
			Rating:      rating,
			Description: firstText(m, hotelDescriptionAliases),
			ImageURL:    firstText(m, imageAliases),
		})
	}
	return out
}
