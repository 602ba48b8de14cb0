// Package assembler turns a category probability distribution into the final
// triage Prediction: primary category, secondary suggestions, and a
// recommendation derived from a fixed (category, confidence band) policy.
package assembler

import (
	"fmt"
	"sort"

	"github.com/crimson-sun/triage/internal/model"
)

// Band is a confidence bucket used to select the triage policy.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

// actionCategories mark labels whose predictions warrant direct action.
var actionCategories = map[string]bool{
	"bug":      true,
	"priority": true,
}

// Assembler is a pure function of the distribution; it holds only fixed
// policy parameters and no mutable state.
type Assembler struct {
	secondaryThreshold float64 // minimum probability for a secondary suggestion
	maxSecondary       int     // cap on secondary suggestions
	bandHigh           float64 // confidence at or above: high band
	bandLow            float64 // confidence below: low band
}

// New creates an Assembler with the given policy parameters.
func New(secondaryThreshold float64, maxSecondary int, bandHigh, bandLow float64) (*Assembler, error) {
	if secondaryThreshold < 0 || secondaryThreshold > 1 {
		return nil, fmt.Errorf("assembler: secondary threshold %v outside [0,1]", secondaryThreshold)
	}
	if maxSecondary < 0 {
		return nil, fmt.Errorf("assembler: negative max secondary %d", maxSecondary)
	}
	if !(0 <= bandLow && bandLow <= bandHigh && bandHigh <= 1) {
		return nil, fmt.Errorf("assembler: bands low=%v high=%v not ordered within [0,1]", bandLow, bandHigh)
	}
	return &Assembler{
		secondaryThreshold: secondaryThreshold,
		maxSecondary:       maxSecondary,
		bandHigh:           bandHigh,
		bandLow:            bandLow,
	}, nil
}

// Assemble builds a Prediction from a distribution over labels. labels[i]
// corresponds to probs[i]. The distribution must be non-empty and aligned;
// a mismatch means the engine is misconfigured and yields an error, never a
// fabricated prediction.
func (a *Assembler) Assemble(labels []string, probs []float64) (model.Prediction, error) {
	if len(labels) == 0 || len(labels) != len(probs) {
		return model.Prediction{}, fmt.Errorf("assembler: %d labels vs %d probabilities", len(labels), len(probs))
	}

	ranked := make([]model.CategoryScore, len(labels))
	for i, label := range labels {
		ranked[i] = model.CategoryScore{
			Category:     label,
			Confidence:   probs[i],
			ActionNeeded: actionCategories[label],
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	primary := ranked[0]

	var secondary []model.CategoryScore
	for _, cs := range ranked[1:] {
		if cs.Confidence <= a.secondaryThreshold {
			break
		}
		if len(secondary) == a.maxSecondary {
			break
		}
		secondary = append(secondary, cs)
	}

	band := a.band(primary.Confidence)
	return model.Prediction{
		Primary:        primary,
		Secondary:      secondary,
		Recommendation: recommend(band),
		Message:        message(primary.Category, band),
	}, nil
}

// band buckets a confidence value.
func (a *Assembler) band(confidence float64) Band {
	switch {
	case confidence >= a.bandHigh:
		return BandHigh
	case confidence >= a.bandLow:
		return BandMedium
	default:
		return BandLow
	}
}

// recommend maps a band to the triage action. The mapping is total: every
// band has exactly one recommendation.
func recommend(band Band) model.Recommendation {
	switch band {
	case BandHigh:
		return model.AutoRoute
	case BandMedium:
		return model.SuggestRoute
	default:
		return model.ManualTriage
	}
}

// message renders the human-readable recommendation for a (category, band)
// pair. Total over all pairs: unknown categories fall through to the generic
// band text, so a new label in a future artifact never breaks assembly.
func message(category string, band Band) string {
	if band == BandLow {
		return "Low confidence prediction - Manual review recommended"
	}
	switch category {
	case "bug":
		if band == BandHigh {
			return "High confidence bug report - Immediate review recommended"
		}
		return "Medium confidence bug report - Review within 24 hours"
	case "feature_request":
		return "Clear feature request - Add to product backlog"
	case "documentation":
		return "Documentation issue - Tag for docs team review"
	case "question":
		return "Support question - Route to community or support channel"
	case "priority":
		return "Priority issue - Escalate to the on-call maintainer"
	default:
		if band == BandHigh {
			return "High confidence prediction - Route to category owner"
		}
		return "Medium confidence prediction - Suggest category and flag for review"
	}
}
