package types

// DestinationPreferences are the destination-finder quiz answers.
type DestinationPreferences struct {
	Climate string `json:"climate" validate:"required"`
	Vibe    string `json:"vibe" validate:"required"`
	Budget  string `json:"budget" validate:"required"`
	Pace    string `json:"pace" validate:"required"`
	Crowd   string `json:"crowd" validate:"required"`
}

type DestinationSuggestion struct {
	Destination       string `json:"destination"`
	MatchScore        int    `json:"match_score"`
	Reason            string `json:"reason"`
	BestMonths        string `json:"best_months"`
	HighlightActivity string `json:"highlight_activity"`
	ImageURL          string `json:"image_url"`
}
