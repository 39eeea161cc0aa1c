package trip

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

const systemInstruction = "You are a professional travel agent. Return ONLY JSON. STRICTLY include 'hotel_options' " +
	"(with pricing_per_night_approx as an object containing min and max strings) and a complete 'itinerary'. " +
	"The 'itinerary' MUST be an array of day objects. Each day object MUST have a 'plan' array of activities. " +
	"DO NOT return a flat list of activities in the itinerary."

const promptTemplate = "Generate travel plan for location: %s, for %d days for %s with %s budget. " +
	"Give me hotel options and hotel names with address, pricing, rating, hotel image url and description, " +
	"and suggest an itinerary with details, place image url, ticket pricing and time to travel for each location, " +
	"with each day plan and the best time to visit %s, in JSON format."

const promptSuffix = "\n\nIMPORTANT: Return ONLY the raw JSON object. Use the exact keys 'activity' and 'description' " +
	"for itinerary items. The 'itinerary' must be an array of day objects, and each day object must contain a " +
	"'plan' array of activities. Do not include any text before or after the JSON."

var travelerPhrases = map[types.TravelerGroup]string{
	types.TravelersSolo:    "a solo traveler",
	types.TravelersCouple:  "a couple",
	types.TravelersFamily:  "a family",
	types.TravelersFriends: "a group of friends",
}

func getTripPrompt(req types.TripRequest) string {
	travelers, ok := travelerPhrases[req.Travelers]
	if !ok {
		travelers = string(req.Travelers)
	}
	return fmt.Sprintf(promptTemplate, req.Location, req.Days, travelers, capitalize(string(req.Budget)), req.Location) + promptSuffix
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func getTripPromptContext(req types.TripRequest) generativeAI.PromptContext {
	return generativeAI.PromptContext{
		SystemInstruction: systemInstruction,
		Prompt:            getTripPrompt(req),
		ResponseSchema:    travelPlanSchema(),
	}
}

func travelPlanSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"location":           str(),
			"best_time_to_visit": str(),
			"travel_plan": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"duration":        str(),
					"budget_category": str(),
					"hotel_options": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":    str(),
								"address": str(),
								"pricing_per_night_approx": {
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"min": str(),
										"max": str(),
									},
									Required: []string{"min", "max"},
								},
								"rating":      str(),
								"description": str(),
								"image_url":   str(),
							},
						},
					},
					"itinerary": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"day":   {Type: genai.TypeNumber},
								"title": str(),
								"plan": {
									Type: genai.TypeArray,
									Items: &genai.Schema{
										Type: genai.TypeObject,
										Properties: map[string]*genai.Schema{
											"activity":              str(),
											"description":           str(),
											"time_of_day":           str(),
											"travel_time":           str(),
											"ticket_pricing_approx": str(),
											"image_url":             str(),
										},
									},
								},
							},
						},
					},
				},
				Required: []string{"duration", "budget_category", "hotel_options", "itinerary"},
			},
		},
		Required: []string{"location", "best_time_to_visit", "travel_plan"},
	}
}
