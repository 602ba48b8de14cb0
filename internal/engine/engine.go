// Package engine orchestrates issue classification: normalize → extract
// lexical, semantic, and statistical features → combine → boosted-tree
// scoring → assemble the triage prediction.
//
// An Engine is immutable after New: every fitted parameter comes from one
// verified artifact, so predictions are stateless and safe to run
// concurrently. Swapping models means building a new Engine from a newly
// loaded artifact and replacing the reference atomically.
package engine

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/triage/internal/engine/assembler"
	"github.com/crimson-sun/triage/internal/engine/classifier"
	"github.com/crimson-sun/triage/internal/engine/embedder"
	"github.com/crimson-sun/triage/internal/engine/features"
	"github.com/crimson-sun/triage/internal/engine/lexical"
	"github.com/crimson-sun/triage/internal/engine/normalizer"
	"github.com/crimson-sun/triage/internal/model"
	"github.com/crimson-sun/triage/internal/store"
)

// Options are the tunable policy parameters. A nil field falls back to the
// default below; a pointer to zero is an explicit zero, not a default.
type Options struct {
	SecondaryThreshold *float64 // minimum probability for secondary suggestions
	MaxSecondary       *int     // cap on secondary suggestions
	BandHigh           *float64 // confidence at or above: auto-route
	BandLow            *float64 // confidence below: manual triage
}

const (
	defaultSecondaryThreshold = 0.15
	defaultMaxSecondary       = 3
	defaultBandHigh           = 0.8
	defaultBandLow            = 0.4
)

// policy is a fully resolved Options.
type policy struct {
	secondaryThreshold float64
	maxSecondary       int
	bandHigh           float64
	bandLow            float64
}

func (o Options) resolve() policy {
	p := policy{
		secondaryThreshold: defaultSecondaryThreshold,
		maxSecondary:       defaultMaxSecondary,
		bandHigh:           defaultBandHigh,
		bandLow:            defaultBandLow,
	}
	if o.SecondaryThreshold != nil {
		p.secondaryThreshold = *o.SecondaryThreshold
	}
	if o.MaxSecondary != nil {
		p.maxSecondary = *o.MaxSecondary
	}
	if o.BandHigh != nil {
		p.bandHigh = *o.BandHigh
	}
	if o.BandLow != nil {
		p.bandLow = *o.BandLow
	}
	return p
}

// Engine classifies issues with one loaded model artifact. All fields are
// read-only after construction.
type Engine struct {
	labels []string
	vocab  *lexical.Vocabulary
	emb    embedder.Embedder
	comb   *features.Combiner
	cls    *classifier.Classifier
	asm    *assembler.Assembler
}

// New wires an Engine from a verified artifact and an encoder. Every
// dimension the components disagree on is a fatal ErrDimensionMismatch here,
// before the engine can serve a single prediction.
func New(art *store.Artifact, emb embedder.Embedder, opts Options) (*Engine, error) {
	layout := art.Manifest.Layout

	vocab, err := lexical.NewVocabulary(art.Terms)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if vocab.Size() != layout.LexicalDim {
		return nil, fmt.Errorf("engine: %w: vocabulary size %d, layout lexical dim %d",
			ErrDimensionMismatch, vocab.Size(), layout.LexicalDim)
	}
	if emb.Dim() != layout.SemanticDim {
		return nil, fmt.Errorf("engine: %w: encoder dim %d, layout semantic dim %d",
			ErrDimensionMismatch, emb.Dim(), layout.SemanticDim)
	}

	comb, err := features.NewCombiner(layout, art.Manifest.Repos)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	cls, err := classifier.New(art.Ensemble)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if comb.Dim() != cls.NumFeatures() {
		return nil, fmt.Errorf("engine: %w: combined features %d, ensemble trained with %d",
			ErrDimensionMismatch, comb.Dim(), cls.NumFeatures())
	}
	if cls.NumClasses() != len(art.Manifest.Labels) {
		return nil, fmt.Errorf("engine: %w: ensemble has %d classes, artifact lists %d labels",
			ErrDimensionMismatch, cls.NumClasses(), len(art.Manifest.Labels))
	}

	pol := opts.resolve()
	asm, err := assembler.New(pol.secondaryThreshold, pol.maxSecondary, pol.bandHigh, pol.bandLow)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Engine{
		labels: art.Manifest.Labels,
		vocab:  vocab,
		emb:    emb,
		comb:   comb,
		cls:    cls,
		asm:    asm,
	}, nil
}

// Labels returns the closed category label set of the loaded artifact.
func (e *Engine) Labels() []string {
	return e.labels
}

// Predict classifies a single issue. An all-whitespace issue still yields a
// valid prediction (zero feature contribution, lowest confidence band), but
// malformed fields return an InputError.
func (e *Engine) Predict(issue model.Issue) (model.Prediction, error) {
	if err := validate(issue); err != nil {
		return model.Prediction{}, err
	}

	norm := normalizer.Normalize(issue.Title, issue.Body)

	semantic, err := e.embed(norm)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("engine: %w", err)
	}

	return e.finish(issue, norm, semantic)
}

// BatchResult is one slot of a batch prediction. Err is set when that item's
// input was rejected; the rest of the batch is unaffected.
type BatchResult struct {
	Prediction model.Prediction
	Err        error
}

// PredictBatch classifies issues in order: result[i] corresponds to
// issues[i] and matches what Predict would return for it alone. Semantic
// extraction runs as one vectorized encoder pass; per-item assembly fans out
// across goroutines. Cancelling ctx aborts the whole batch without
// corrupting any later call — the engine holds no mutable state.
func (e *Engine) PredictBatch(ctx context.Context, issues []model.Issue) ([]BatchResult, error) {
	results := make([]BatchResult, len(issues))
	norms := make([]normalizer.Text, len(issues))

	// Normalize up front so one encoder pass can cover every embeddable item.
	var texts []string
	var textIdx []int
	for i, issue := range issues {
		if err := validate(issue); err != nil {
			results[i].Err = err
			continue
		}
		norms[i] = normalizer.Normalize(issue.Title, issue.Body)
		if !norms[i].Empty {
			texts = append(texts, norms[i].Plain)
			textIdx = append(textIdx, i)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	semantic := make([][]float32, len(issues))
	if len(texts) > 0 {
		vecs, err := e.emb.EmbedBatch(texts)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		for j, i := range textIdx {
			semantic[i] = vecs[j]
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range issues {
		if results[i].Err != nil {
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sem := semantic[i]
			if sem == nil {
				sem = e.zeroSemantic()
			}
			pred, err := e.finish(issues[i], norms[i], sem)
			if err != nil {
				return err
			}
			results[i].Prediction = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// embed returns the semantic vector for normalized text; the empty sentinel
// contributes a zero vector without touching the encoder.
func (e *Engine) embed(norm normalizer.Text) ([]float32, error) {
	if norm.Empty {
		return e.zeroSemantic(), nil
	}
	return e.emb.Embed(norm.Plain)
}

func (e *Engine) zeroSemantic() []float32 {
	return make([]float32, e.emb.Dim())
}

// finish runs the shared tail of both prediction paths: lexical + stats
// extraction, combination, scoring, assembly.
func (e *Engine) finish(issue model.Issue, norm normalizer.Text, semantic []float32) (model.Prediction, error) {
	lex := e.vocab.Extract(norm.Tokens)
	stats := features.ExtractStats(issue.Title, issue.Body, norm)

	fv, err := e.comb.Combine(lex, semantic, stats, issue.Repo)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("engine: %w", err)
	}

	probs, err := e.cls.PredictProba(fv)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("engine: %w", err)
	}

	pred, err := e.asm.Assemble(e.labels, probs)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("engine: %w", err)
	}
	return pred, nil
}

// validate rejects malformed issue fields. Emptiness is not malformed — it
// degrades to the zero feature contribution.
func validate(issue model.Issue) error {
	if !utf8.ValidString(issue.Title) {
		return &InputError{Field: "title", Reason: "not valid UTF-8"}
	}
	if !utf8.ValidString(issue.Body) {
		return &InputError{Field: "body", Reason: "not valid UTF-8"}
	}
	if !utf8.ValidString(issue.Repo) {
		return &InputError{Field: "repo", Reason: "not valid UTF-8"}
	}
	return nil
}

// Close releases encoder resources.
func (e *Engine) Close() error {
	return e.emb.Close()
}
