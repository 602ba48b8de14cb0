// Package features assembles the classifier's input vector from lexical,
// semantic, statistical, and categorical signals. The concatenation order
// (lexical ++ semantic ++ stats ++ categorical) is fixed and versioned with
// the model artifact.
package features

import (
	"fmt"
	"hash/fnv"
)

// Layout describes the fixed feature geometry of a trained model.
type Layout struct {
	LexicalDim  int `yaml:"lexical_dim"`
	SemanticDim int `yaml:"semantic_dim"`
	StatsDim    int `yaml:"stats_dim"`
	RepoSlots   int `yaml:"repo_slots"` // categorical one-hot width
}

// Dim returns the total feature vector length.
func (l Layout) Dim() int {
	return l.LexicalDim + l.SemanticDim + l.StatsDim + l.RepoSlots
}

// Combiner concatenates feature groups into a single fixed-length vector.
type Combiner struct {
	layout    Layout
	repoSlots map[string]int // repos seen at training, pinned to their slot
}

// NewCombiner validates the layout against this build's stats extractor and
// the pinned repository slots against the categorical width.
func NewCombiner(layout Layout, trainedRepos map[string]int) (*Combiner, error) {
	if layout.LexicalDim < 0 || layout.SemanticDim <= 0 || layout.RepoSlots <= 0 {
		return nil, fmt.Errorf("features: invalid layout %+v", layout)
	}
	if layout.StatsDim != StatsDim {
		return nil, fmt.Errorf("features: artifact stats dim %d, engine extracts %d", layout.StatsDim, StatsDim)
	}
	for repo, slot := range trainedRepos {
		if slot < 0 || slot >= layout.RepoSlots {
			return nil, fmt.Errorf("features: repo %q slot %d outside [0,%d)", repo, slot, layout.RepoSlots)
		}
	}
	return &Combiner{layout: layout, repoSlots: trainedRepos}, nil
}

// Dim returns the combined vector length the classifier must accept.
func (c *Combiner) Dim() int {
	return c.layout.Dim()
}

// Combine concatenates the feature groups. Group lengths are validated so a
// drifted extractor can never silently truncate or misalign the vector.
func (c *Combiner) Combine(lexical, semantic []float32, stats Stats, repo string) ([]float32, error) {
	if len(lexical) != c.layout.LexicalDim {
		return nil, fmt.Errorf("features: lexical vector len %d, layout wants %d", len(lexical), c.layout.LexicalDim)
	}
	if len(semantic) != c.layout.SemanticDim {
		return nil, fmt.Errorf("features: semantic vector len %d, layout wants %d", len(semantic), c.layout.SemanticDim)
	}

	out := make([]float32, 0, c.Dim())
	out = append(out, lexical...)
	out = append(out, semantic...)
	out = append(out, stats.Vector()...)

	slots := make([]float32, c.layout.RepoSlots)
	slots[c.repoSlot(repo)] = 1
	out = append(out, slots...)

	return out, nil
}

// repoSlot maps a repository to its categorical slot. Repos seen at training
// keep the slot recorded in the artifact; unseen repos hash into the same
// fixed-width table (graceful degradation, never a failure).
func (c *Combiner) repoSlot(repo string) int {
	if slot, ok := c.repoSlots[repo]; ok {
		return slot
	}
	h := fnv.New32a()
	h.Write([]byte(repo))
	return int(h.Sum32() % uint32(c.layout.RepoSlots))
}
