package types

import (
	"strings"
	"time"
)

// TravelerGroup is who the trip is planned for.
type TravelerGroup string

const (
	TravelersSolo    TravelerGroup = "solo"
	TravelersCouple  TravelerGroup = "couple"
	TravelersFamily  TravelerGroup = "family"
	TravelersFriends TravelerGroup = "friends"
)

// BudgetLevel is the spending tier requested for the trip.
type BudgetLevel string

const (
	BudgetLow    BudgetLevel = "low"
	BudgetMedium BudgetLevel = "medium"
	BudgetLuxury BudgetLevel = "luxury"
)

// ParseTravelerGroup maps UI labels ("Just Me", "Couple", ...) onto a TravelerGroup.
// Unknown labels are returned lowercased so validation can reject them.
func ParseTravelerGroup(s string) TravelerGroup {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "just me", "me", "alone", "single":
		return TravelersSolo
	}
	return TravelerGroup(v)
}

// ParseBudgetLevel maps UI labels ("Low", "Medium", "Luxury") onto a BudgetLevel.
func ParseBudgetLevel(s string) BudgetLevel {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "cheap", "budget":
		return BudgetLow
	case "moderate":
		return BudgetMedium
	case "premium", "high":
		return BudgetLuxury
	}
	return BudgetLevel(v)
}

// TripRequest holds the user-declared trip parameters.
type TripRequest struct {
	Location  string        `json:"location" bson:"location" validate:"required"`
	Days      int           `json:"days" bson:"days" validate:"required,min=1"`
	Travelers TravelerGroup `json:"travelers" bson:"travelers" validate:"required,oneof=solo couple family friends"`
	Budget    BudgetLevel   `json:"budget" bson:"budget" validate:"required,oneof=low medium luxury"`
}

// Normalized returns a copy with trimmed text and canonical enum values.
func (r TripRequest) Normalized() TripRequest {
	return TripRequest{
		Location:  strings.TrimSpace(r.Location),
		Days:      r.Days,
		Travelers: ParseTravelerGroup(string(r.Travelers)),
		Budget:    ParseBudgetLevel(string(r.Budget)),
	}
}

// PriceRange is a normalized price. Display is always populated.
type PriceRange struct {
	Min     string `json:"min,omitempty" bson:"min,omitempty"`
	Max     string `json:"max,omitempty" bson:"max,omitempty"`
	Display string `json:"display" bson:"display"`
}

type Hotel struct {
	Name        string     `json:"name" bson:"name"`
	Address     string     `json:"address" bson:"address"`
	PriceRange  PriceRange `json:"price_range" bson:"price_range"`
	Rating      string     `json:"rating" bson:"rating"`
	Description string     `json:"description" bson:"description"`
	ImageURL    string     `json:"image_url" bson:"image_url"`
}

type Activity struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	TimeOfDay   string `json:"time_of_day" bson:"time_of_day"`
	TravelTime  string `json:"travel_time" bson:"travel_time"`
	TicketPrice string `json:"ticket_price" bson:"ticket_price"`
	ImageURL    string `json:"image_url" bson:"image_url"`
}

type DayPlan struct {
	DayNumber  int        `json:"day_number" bson:"day_number"`
	Title      string     `json:"title" bson:"title"`
	Activities []Activity `json:"activities" bson:"activities"`
}

// CanonicalTripPlan is the normalized itinerary handed to persistence and rendering.
// Itinerary is always grouped by day.
type CanonicalTripPlan struct {
	Location        string    `json:"location" bson:"location"`
	BestTimeToVisit string    `json:"best_time_to_visit" bson:"best_time_to_visit"`
	DurationLabel   string    `json:"duration" bson:"duration"`
	BudgetCategory  string    `json:"budget_category" bson:"budget_category"`
	HotelOptions    []Hotel   `json:"hotel_options" bson:"hotel_options"`
	Itinerary       []DayPlan `json:"itinerary" bson:"itinerary"`
}

// TripRecord is the persisted trip document. TripData is the plan in the
// model's schema shape so that stored trips read back through the normalizer.
type TripRecord struct {
	ID            string         `json:"id" bson:"_id"`
	UserSelection TripRequest    `json:"userSelection" bson:"userSelection"`
	TripData      map[string]any `json:"tripData" bson:"tripData"`
	UserEmail     string         `json:"userEmail" bson:"userEmail"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
}

// Trip is a stored trip with its plan normalized for rendering.
type Trip struct {
	ID            string            `json:"id"`
	UserSelection TripRequest       `json:"user_selection"`
	Plan          CanonicalTripPlan `json:"plan"`
	UserEmail     string            `json:"user_email,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// GenerationState is a step of the trip generation state machine.
type GenerationState string

const (
	StateIdle         GenerationState = "idle"
	StateValidating   GenerationState = "validating"
	StateAwaitingAuth GenerationState = "awaiting_auth"
	StateGenerating   GenerationState = "generating"
	StateExtracting   GenerationState = "extracting"
	StateNormalizing  GenerationState = "normalizing"
	StatePersisting   GenerationState = "persisting"
	StateDone         GenerationState = "done"
	StateFailed       GenerationState = "failed"
)

// GenerationResult is what a finished generation hands back. A non-nil
// PersistErr means the plan exists but was not saved.
type GenerationResult struct {
	TripID     string            `json:"trip_id"`
	Request    TripRequest       `json:"request"`
	Plan       CanonicalTripPlan `json:"plan"`
	UserEmail  string            `json:"user_email,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	ModelUsed  string            `json:"model_used,omitempty"`
	PersistErr error             `json:"-"`
}

// Saved reports whether the persistence step succeeded.
func (r *GenerationResult) Saved() bool {
	return r != nil && r.PersistErr == nil
}
