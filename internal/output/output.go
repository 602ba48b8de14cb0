package output

import (
	"context"

	"github.com/crimson-sun/triage/internal/model"
)

// Output defines the interface for prediction destinations.
type Output interface {
	Write(ctx context.Context, result Result) error
	Close() error
}

// Result pairs a prediction with its source issue for downstream consumers.
// Err carries a per-item input failure; Prediction is zero in that case.
type Result struct {
	Issue      model.Issue       `json:"issue"`
	Prediction *model.Prediction `json:"prediction,omitempty"`
	Err        string            `json:"error,omitempty"`
}
