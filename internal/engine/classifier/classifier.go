// Package classifier scores combined feature vectors with a trained
// gradient-boosted decision tree ensemble and converts the raw margins into
// a normalized probability distribution over the category labels.
//
// The ensemble uses the round-robin multiclass layout: with K classes, tree i
// contributes its leaf value to class i mod K. Boosted trees take the mixed
// sparse-lexical / dense-semantic / categorical input without feature
// scaling, which is why the trainer chose them.
package classifier

import (
	"fmt"
	"math"
)

// Tree is one regression tree in node-array form. Node n is a leaf when
// Left[n] < 0; otherwise the split sends feature values < Threshold[n] left
// and the rest right. Children always point to higher-numbered nodes, so a
// walk visits each node at most once. Value holds leaf weights (unused at
// split nodes).
type Tree struct {
	Feature   []int32   `json:"feature"`
	Threshold []float32 `json:"threshold"`
	Left      []int32   `json:"left"`
	Right     []int32   `json:"right"`
	Value     []float32 `json:"value"`
}

// Ensemble is a trained boosted-tree model, immutable after load.
type Ensemble struct {
	NumClass   int     `json:"num_class"`
	NumFeature int     `json:"num_feature"`
	BaseScore  float32 `json:"base_score"`
	Trees      []Tree  `json:"trees"`
}

// Classifier wraps an Ensemble for prediction. It holds no mutable state, so
// one instance is safe for concurrent use by any number of goroutines.
type Classifier struct {
	ensemble Ensemble
}

// New validates the ensemble structure and returns a Classifier. Structural
// errors here mean a corrupt or mis-exported artifact.
func New(e Ensemble) (*Classifier, error) {
	if e.NumClass < 2 {
		return nil, fmt.Errorf("classifier: num_class %d, need at least 2", e.NumClass)
	}
	if e.NumFeature <= 0 {
		return nil, fmt.Errorf("classifier: invalid num_feature %d", e.NumFeature)
	}
	if len(e.Trees) == 0 || len(e.Trees)%e.NumClass != 0 {
		return nil, fmt.Errorf("classifier: %d trees not a multiple of %d classes", len(e.Trees), e.NumClass)
	}
	for i, t := range e.Trees {
		if err := validateTree(t, e.NumFeature); err != nil {
			return nil, fmt.Errorf("classifier: tree %d: %w", i, err)
		}
	}
	return &Classifier{ensemble: e}, nil
}

func validateTree(t Tree, numFeature int) error {
	n := len(t.Left)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node array lengths disagree")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] < 0 {
			continue // leaf
		}
		// Children must point strictly forward so every walk terminates.
		if t.Left[i] <= int32(i) || int(t.Left[i]) >= n {
			return fmt.Errorf("node %d: left child %d not a forward reference", i, t.Left[i])
		}
		if t.Right[i] <= int32(i) || int(t.Right[i]) >= n {
			return fmt.Errorf("node %d: right child %d not a forward reference", i, t.Right[i])
		}
		if t.Feature[i] < 0 || int(t.Feature[i]) >= numFeature {
			return fmt.Errorf("node %d: feature %d outside [0,%d)", i, t.Feature[i], numFeature)
		}
	}
	return nil
}

// NumFeatures returns the input dimension the ensemble was trained with.
func (c *Classifier) NumFeatures() int {
	return c.ensemble.NumFeature
}

// NumClasses returns the size of the label set.
func (c *Classifier) NumClasses() int {
	return c.ensemble.NumClass
}

// PredictProba maps a feature vector to class probabilities via softmax over
// the per-class margin sums. The returned slice is indexed by class and sums
// to 1 within floating tolerance.
func (c *Classifier) PredictProba(fv []float32) ([]float64, error) {
	if len(fv) != c.ensemble.NumFeature {
		return nil, fmt.Errorf("classifier: feature vector len %d, model wants %d", len(fv), c.ensemble.NumFeature)
	}
	return softmax(c.margins(fv)), nil
}

// PredictProbaBatch scores multiple feature vectors. Each row goes through
// exactly the same scoring routine as PredictProba, so batch and single
// results are identical by construction.
func (c *Classifier) PredictProbaBatch(fvs [][]float32) ([][]float64, error) {
	out := make([][]float64, len(fvs))
	for i, fv := range fvs {
		probs, err := c.PredictProba(fv)
		if err != nil {
			return nil, fmt.Errorf("classifier: row %d: %w", i, err)
		}
		out[i] = probs
	}
	return out, nil
}

// margins sums leaf values per class in the round-robin tree layout.
func (c *Classifier) margins(fv []float32) []float64 {
	k := c.ensemble.NumClass
	scores := make([]float64, k)
	for i := range scores {
		scores[i] = float64(c.ensemble.BaseScore)
	}
	for i, t := range c.ensemble.Trees {
		scores[i%k] += float64(t.leaf(fv))
	}
	return scores
}

// leaf walks the tree to the leaf value for the given feature vector.
func (t *Tree) leaf(fv []float32) float32 {
	n := int32(0)
	for t.Left[n] >= 0 {
		if fv[t.Feature[n]] < t.Threshold[n] {
			n = t.Left[n]
		} else {
			n = t.Right[n]
		}
	}
	return t.Value[n]
}

// softmax converts margins to probabilities with max subtraction for
// numerical stability.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		e := math.Exp(s - max)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
