package triage

import "github.com/crimson-sun/triage/internal/model"

// Recommendation is the triage action derived from the primary category and
// its confidence band.
type Recommendation string

const (
	// AutoRoute means confidence is high enough to route without review.
	AutoRoute Recommendation = "auto-route"
	// SuggestRoute means the category is a suggestion a human should confirm.
	SuggestRoute Recommendation = "suggest-route"
	// ManualTriage means the model is too uncertain to suggest a route.
	ManualTriage Recommendation = "manual-triage-required"
)

// Issue is one issue report to classify. Title and Body may be empty; Repo
// identifies the repository the issue was filed against.
type Issue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Repo  string `json:"repo"`
}

// CategoryScore pairs a category label with the probability the model
// assigned to it.
type CategoryScore struct {
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	ActionNeeded bool    `json:"action_needed"`
}

// Prediction is the classification result for one issue.
type Prediction struct {
	Primary        CategoryScore   `json:"primary_category"`
	Secondary      []CategoryScore `json:"secondary_categories,omitempty"`
	Recommendation Recommendation  `json:"triage_recommendation"`
	Message        string          `json:"message,omitempty"`
}

// Result is one slot of a batch classification. Exactly one of Prediction
// and Err is meaningful: a failed slot carries its own error without
// aborting the rest of the batch.
type Result struct {
	Prediction Prediction
	Err        error
}

// predictionFromModel converts the internal prediction to the public type.
func predictionFromModel(p model.Prediction) Prediction {
	out := Prediction{
		Primary:        CategoryScore(p.Primary),
		Recommendation: Recommendation(p.Recommendation),
		Message:        p.Message,
	}
	if len(p.Secondary) > 0 {
		out.Secondary = make([]CategoryScore, len(p.Secondary))
		for i, s := range p.Secondary {
			out.Secondary[i] = CategoryScore(s)
		}
	}
	return out
}
