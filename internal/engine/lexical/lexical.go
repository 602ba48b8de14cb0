// Package lexical computes TF-IDF feature vectors against a vocabulary fitted
// at training time. The vocabulary is frozen: terms outside it contribute
// nothing, and the output dimension never changes for a loaded model.
package lexical

import (
	"fmt"
	"math"
	"strings"
)

// Term is one fitted vocabulary entry. Index is the term's fixed position in
// the output vector; IDF is its precomputed inverse-document-frequency
// weight. Terms containing a single space are bigrams.
type Term struct {
	Text  string  `json:"term"`
	Index int     `json:"index"`
	IDF   float64 `json:"idf"`
}

// Vocabulary maps terms to their fixed vector slots and IDF weights.
type Vocabulary struct {
	slots   map[string]int
	idf     []float64
	bigrams bool
}

// NewVocabulary builds a Vocabulary from fitted terms. Indices must form a
// dense [0, len) range with no duplicates — anything else means the artifact
// is inconsistent.
func NewVocabulary(terms []Term) (*Vocabulary, error) {
	n := len(terms)
	v := &Vocabulary{
		slots: make(map[string]int, n),
		idf:   make([]float64, n),
	}
	seen := make([]bool, n)
	for _, t := range terms {
		if t.Index < 0 || t.Index >= n {
			return nil, fmt.Errorf("lexical: term %q index %d out of range [0,%d)", t.Text, t.Index, n)
		}
		if seen[t.Index] {
			return nil, fmt.Errorf("lexical: duplicate vocabulary index %d", t.Index)
		}
		if _, dup := v.slots[t.Text]; dup {
			return nil, fmt.Errorf("lexical: duplicate vocabulary term %q", t.Text)
		}
		seen[t.Index] = true
		v.slots[t.Text] = t.Index
		v.idf[t.Index] = t.IDF
		if strings.ContainsRune(t.Text, ' ') {
			v.bigrams = true
		}
	}
	return v, nil
}

// Size returns the fixed output dimension.
func (v *Vocabulary) Size() int {
	return len(v.idf)
}

// Extract produces the TF-IDF vector for a token sequence: raw term counts
// scaled by IDF, then L2-normalized (matching the fitted vectorizer). An
// empty token sequence yields the zero vector.
func (v *Vocabulary) Extract(tokens []string) []float32 {
	out := make([]float32, len(v.idf))
	if len(tokens) == 0 {
		return out
	}

	counts := make(map[int]float64)
	for _, tok := range tokens {
		if slot, ok := v.slots[tok]; ok {
			counts[slot]++
		}
	}
	if v.bigrams {
		for i := 0; i+1 < len(tokens); i++ {
			if slot, ok := v.slots[tokens[i]+" "+tokens[i+1]]; ok {
				counts[slot]++
			}
		}
	}

	var sumSq float64
	for slot, tf := range counts {
		w := tf * v.idf[slot]
		out[slot] = float32(w)
		sumSq += w * w
	}
	if sumSq > 0 {
		inv := float32(1.0 / math.Sqrt(sumSq))
		for slot := range counts {
			out[slot] *= inv
		}
	}
	return out
}
