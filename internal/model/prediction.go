package model

// Recommendation is the triage action derived from the primary category and
// its confidence band.
type Recommendation string

const (
	AutoRoute    Recommendation = "auto-route"
	SuggestRoute Recommendation = "suggest-route"
	ManualTriage Recommendation = "manual-triage-required"
)

// CategoryScore pairs a category label with the probability the classifier
// assigned to it.
type CategoryScore struct {
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	ActionNeeded bool    `json:"action_needed"` // bug/priority categories warrant direct action
}

// Prediction is the engine's output for one issue.
type Prediction struct {
	Primary        CategoryScore   `json:"primary_category"`
	Secondary      []CategoryScore `json:"secondary_categories,omitempty"` // sorted descending by confidence
	Recommendation Recommendation  `json:"triage_recommendation"`
	Message        string          `json:"message,omitempty"` // human-readable recommendation text
}
