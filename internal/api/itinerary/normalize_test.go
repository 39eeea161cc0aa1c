package itinerary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

const parisPlan = `{
  "location": "Paris, France",
  "best_time_to_visit": "April to June",
  "travel_plan": {
    "duration": "3 days",
    "budget_category": "Medium",
    "hotel_options": [
      {"name": "Hotel Lutetia", "address": "45 Bd Raspail", "pricing_per_night_approx": {"min": "$250", "max": "$400"}, "rating": 4.6, "description": "Left bank classic", "image_url": "https://img/lutetia.jpg"},
      {"name": "Generator Paris", "rating": "4.1"}
    ],
    "itinerary": [
      {"day": 1, "title": "Icons", "plan": [
        {"activity": "Eiffel Tower", "description": "Summit views", "time_of_day": "Morning", "travel_time": "15 min", "ticket_pricing_approx": {"min": 20, "max": 30}},
        {"activity": "Seine cruise", "ticket_pricing_approx": "€15"}
      ]},
      {"day": 2, "title": "Art", "plan": [
        {"activity": "Louvre", "ticket_pricing_approx": {"price": 22}}
      ]},
      {"day": 3, "title": "Montmartre", "plan": [
        {"activity": "Sacré-Cœur", "ticket_pricing_approx": "Free entry"}
      ]}
    ]
  }
}`

func TestNormalize(t *testing.T) {
	t.Run("schema-shaped plan", func(t *testing.T) {
		plan := Normalize(decode(t, parisPlan))

		assert.Equal(t, "Paris, France", plan.Location)
		assert.Equal(t, "April to June", plan.BestTimeToVisit)
		assert.Equal(t, "3 days", plan.DurationLabel)
		assert.Equal(t, "Medium", plan.BudgetCategory)

		require.Len(t, plan.HotelOptions, 2)
		assert.Equal(t, types.PriceRange{Min: "$250", Max: "$400", Display: "$250 - $400 per night"}, plan.HotelOptions[0].PriceRange)
		assert.Equal(t, "4.6", plan.HotelOptions[0].Rating)
		assert.Equal(t, PriceUnavailable, plan.HotelOptions[1].PriceRange.Display)

		require.Len(t, plan.Itinerary, 3)
		day1 := plan.Itinerary[0]
		assert.Equal(t, 1, day1.DayNumber)
		assert.Equal(t, "Icons", day1.Title)
		require.Len(t, day1.Activities, 2)
		assert.Equal(t, types.Activity{
			Name:        "Eiffel Tower",
			Description: "Summit views",
			TimeOfDay:   "Morning",
			TravelTime:  "15 min",
			TicketPrice: "20 - 30",
		}, day1.Activities[0])
		assert.Equal(t, "€15", day1.Activities[1].TicketPrice)
		assert.Equal(t, "22", plan.Itinerary[1].Activities[0].TicketPrice)
		assert.Equal(t, FreeMarker, plan.Itinerary[2].Activities[0].TicketPrice)
	})

	t.Run("itinerary path priority", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{"tripData.itinerary", `{"tripData":{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}}`},
			{"tripData.travel_plan.itinerary", `{"tripData":{"travel_plan":{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}}}`},
			{"itinerary", `{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}`},
			{"data.tripData.itinerary", `{"data":{"tripData":{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}}}`},
			{"doc.tripData.itinerary", `{"doc":{"tripData":{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}}}`},
			{"days", `{"days":[{"day":1,"activities":[{"activity":"A"}]}]}`},
			{"root array", `[{"day":1,"plan":[{"activity":"A"}]}]`},
			{"empty first path skipped", `{"itinerary":[],"travel_plan":{"itinerary":[{"day":1,"plan":[{"activity":"A"}]}]}}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				plan := Normalize(decode(t, tt.doc))
				require.Len(t, plan.Itinerary, 1)
				require.Len(t, plan.Itinerary[0].Activities, 1)
				assert.Equal(t, "A", plan.Itinerary[0].Activities[0].Name)
			})
		}
	})

	t.Run("flat activities regroup by day", func(t *testing.T) {
		doc := decode(t, `{"itinerary":[
			{"day":3,"activity":"E"},
			{"day":1,"activity":"A"},
			{"day":2,"activity":"C"},
			{"day":1,"activity":"B"},
			{"day":3,"activity":"F"},
			{"day":2,"activity":"D"}
		]}`)
		plan := Normalize(doc)
		require.Len(t, plan.Itinerary, 3)
		want := [][]string{{"A", "B"}, {"C", "D"}, {"E", "F"}}
		for i, day := range plan.Itinerary {
			assert.Equal(t, i+1, day.DayNumber)
			require.Len(t, day.Activities, 2)
			assert.Equal(t, want[i], []string{day.Activities[0].Name, day.Activities[1].Name})
		}
	})

	t.Run("flat activities with string days and missing day", func(t *testing.T) {
		doc := decode(t, `[
			{"place_name":"X"},
			{"dayNumber":"Day 2","attraction":"Y"},
			{"day_number":"2","name":"Z"}
		]`)
		plan := Normalize(doc)
		require.Len(t, plan.Itinerary, 2)
		assert.Equal(t, 1, plan.Itinerary[0].DayNumber)
		assert.Equal(t, "X", plan.Itinerary[0].Activities[0].Name)
		assert.Equal(t, "Day 2", plan.Itinerary[1].Title)
		assert.Equal(t, []string{"Y", "Z"}, []string{plan.Itinerary[1].Activities[0].Name, plan.Itinerary[1].Activities[1].Name})
	})

	t.Run("bare activity names become day one", func(t *testing.T) {
		plan := Normalize(decode(t, `{"itinerary":["Louvre","Eiffel Tower"]}`))
		require.Len(t, plan.Itinerary, 1)
		day := plan.Itinerary[0]
		assert.Equal(t, 1, day.DayNumber)
		assert.Equal(t, "Day 1", day.Title)
		require.Len(t, day.Activities, 2)
		assert.Equal(t, "Louvre", day.Activities[0].Name)
		assert.Equal(t, "Eiffel Tower", day.Activities[1].Name)
		assert.Equal(t, PriceUnavailable, day.Activities[1].TicketPrice)
	})

	t.Run("day-keyed map is ordered by day number", func(t *testing.T) {
		doc := decode(t, `{"itinerary":{
			"day10":{"title":"Ten","plan":[{"activity":"J"}]},
			"day2":[{"activity":"B"}],
			"day1":{"title":"One","plan":[{"activity":"A"}]}
		}}`)
		plan := Normalize(doc)
		require.Len(t, plan.Itinerary, 3)
		assert.Equal(t, []int{1, 2, 10}, []int{plan.Itinerary[0].DayNumber, plan.Itinerary[1].DayNumber, plan.Itinerary[2].DayNumber})
		assert.Equal(t, "One", plan.Itinerary[0].Title)
		assert.Equal(t, "B", plan.Itinerary[1].Activities[0].Name)
	})

	t.Run("activity name alias order and fallback", func(t *testing.T) {
		doc := decode(t, `{"itinerary":[{"day":1,"plan":[
			{"activity":"","title":"Title wins","name":"Name"},
			{"place":"Place","item":"Item"},
			{"description":"no name"}
		]}]}`)
		acts := Normalize(doc).Itinerary[0].Activities
		require.Len(t, acts, 3)
		assert.Equal(t, "Title wins", acts[0].Name)
		assert.Equal(t, "Place", acts[1].Name)
		assert.Equal(t, "Activity 3", acts[2].Name)
	})

	t.Run("ticket aliases", func(t *testing.T) {
		doc := decode(t, `{"itinerary":[{"day":1,"plan":[
			{"activity":"a","ticket_price":"10 EUR"},
			{"activity":"b","ticket_price_approx":{"min":"0","max":"0"}},
			{"activity":"c","ticket_pricing":0},
			{"activity":"d"}
		]}]}`)
		acts := Normalize(doc).Itinerary[0].Activities
		assert.Equal(t, "10 EUR", acts[0].TicketPrice)
		assert.Equal(t, FreeMarker, acts[1].TicketPrice)
		assert.Equal(t, FreeMarker, acts[2].TicketPrice)
		assert.Equal(t, PriceUnavailable, acts[3].TicketPrice)
	})

	t.Run("garbage degrades to empty plan", func(t *testing.T) {
		for _, doc := range []any{nil, "text", 42.0, map[string]any{}, []any{}, []any{"a", 1.0}} {
			plan := Normalize(doc)
			assert.NotNil(t, plan.Itinerary)
			assert.NotNil(t, plan.HotelOptions)
			assert.Empty(t, plan.HotelOptions)
		}
	})
}

func TestTicketPrice(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"missing", nil, PriceUnavailable},
		{"blank", "  ", PriceUnavailable},
		{"zero number", 0.0, FreeMarker},
		{"zero string", "0", FreeMarker},
		{"zero with currency", "$0.00", FreeMarker},
		{"zero range", map[string]any{"min": "0", "max": "0"}, FreeMarker},
		{"zero numeric range", map[string]any{"min": 0, "max": 0}, FreeMarker},
		{"zero price object", map[string]any{"price": 0}, FreeMarker},
		{"free text", "Free entry", FreeMarker},
		{"no entry fee", "No entry fee", FreeMarker},
		{"range", map[string]any{"min": 10, "max": 25}, "10 - 25"},
		{"equal range", map[string]any{"min": "12", "max": "12"}, "12"},
		{"only max", map[string]any{"max": "€30"}, "€30"},
		{"price object", map[string]any{"price": "€18"}, "€18"},
		{"empty object", map[string]any{}, PriceUnavailable},
		{"scalar", "€15-€20", "€15-€20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TicketPrice(tt.in))
		})
	}
}

func TestHotelPrice(t *testing.T) {
	assert.Equal(t, types.PriceRange{Display: PriceUnavailable}, HotelPrice(nil))
	assert.Equal(t, types.PriceRange{Min: "100", Max: "150", Display: "100 - 150 per night"},
		HotelPrice(map[string]any{"min_price": 100, "max_price": 150}))
	assert.Equal(t, types.PriceRange{Min: "90", Display: "90"}, HotelPrice(map[string]any{"min": "90"}))
	assert.Equal(t, types.PriceRange{Display: "$120/night"}, HotelPrice("$120/night"))
}

func TestToDocumentRoundTrip(t *testing.T) {
	t.Run("normalized plan survives doc form", func(t *testing.T) {
		plan := Normalize(decode(t, parisPlan))
		assert.Equal(t, plan, Normalize(ToDocument(plan)))
	})

	t.Run("survives json encoding of the doc form", func(t *testing.T) {
		plan := Normalize(decode(t, parisPlan))
		raw, err := json.Marshal(ToDocument(plan))
		require.NoError(t, err)
		assert.Equal(t, plan, Normalize(decode(t, string(raw))))
	})

	t.Run("regrouped plan survives doc form", func(t *testing.T) {
		plan := Normalize(decode(t, `[{"day":2,"activity":"B"},{"day":1,"activity":"A","ticket_price":0}]`))
		assert.Equal(t, plan, Normalize(ToDocument(plan)))
	})

	t.Run("hand-built plan", func(t *testing.T) {
		plan := types.CanonicalTripPlan{
			Location:        "Kyoto",
			BestTimeToVisit: "November",
			DurationLabel:   "2 days",
			BudgetCategory:  "Luxury",
			HotelOptions: []types.Hotel{{
				Name:       "Ryokan",
				PriceRange: types.PriceRange{Display: PriceUnavailable},
				Rating:     RatingUnknown,
			}},
			Itinerary: []types.DayPlan{
				{DayNumber: 1, Title: "Temples", Activities: []types.Activity{{Name: "Kinkaku-ji", TicketPrice: "¥500"}}},
				{DayNumber: 2, Title: "Day 2", Activities: []types.Activity{}},
			},
		}
		assert.Equal(t, plan, Normalize(ToDocument(plan)))
	})

	t.Run("empty plan", func(t *testing.T) {
		plan := Normalize(nil)
		assert.Equal(t, plan, Normalize(ToDocument(plan)))
	})
}

// kv has the shape of an ordered BSON element.
type kv struct {
	Key   string
	Value any
}

func TestNormalizeOrderedDocuments(t *testing.T) {
	doc := []kv{
		{"location", "Lisbon"},
		{"itinerary", []any{
			[]kv{{"day", int32(1)}, {"plan", []any{
				[]kv{{"activity", "Belém Tower"}, {"ticket_pricing_approx", int64(0)}},
			}}},
		}},
	}

	plan := Normalize(doc)

	assert.Equal(t, "Lisbon", plan.Location)
	require.Len(t, plan.Itinerary, 1)
	require.Len(t, plan.Itinerary[0].Activities, 1)
	assert.Equal(t, "Belém Tower", plan.Itinerary[0].Activities[0].Name)
	assert.Equal(t, FreeMarker, plan.Itinerary[0].Activities[0].TicketPrice)
}
