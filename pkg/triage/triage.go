package triage

import (
	"context"
	"fmt"

	"github.com/crimson-sun/triage/internal/engine"
	"github.com/crimson-sun/triage/internal/engine/embedder"
	"github.com/crimson-sun/triage/internal/model"
	"github.com/crimson-sun/triage/internal/store"
)

// Triage is an issue classification engine bound to one loaded model bundle.
// Safe for concurrent use.
type Triage struct {
	engine *engine.Engine
	labels []string
	bundle string
}

// New creates a Triage instance, loading and verifying the model bundle and
// the ONNX encoder. This is an expensive operation — create once, reuse
// across requests.
func New(opts ...Option) (*Triage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	art, err := store.Load(o.bundleDir)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	libPath := o.runtimeLib
	if libPath == "" {
		libPath = art.EncoderLibPath()
	}

	emb, err := embedder.New(art.EncoderModelPath(), art.EncoderVocabPath(), libPath)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	eng, err := engine.New(art, emb, engine.Options{
		SecondaryThreshold: o.secondaryThreshold,
		MaxSecondary:       o.maxSecondary,
		BandHigh:           o.bandHigh,
		BandLow:            o.bandLow,
	})
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("triage: %w", err)
	}

	return &Triage{engine: eng, labels: eng.Labels(), bundle: art.Manifest.ID}, nil
}

// BundleID returns the ULID of the loaded model artifact.
func (t *Triage) BundleID() string {
	return t.bundle
}

// Labels returns the model's category labels in classifier order.
func (t *Triage) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Classify classifies a single issue given its fields.
func (t *Triage) Classify(title, body, repo string) (Prediction, error) {
	return t.ClassifyIssue(Issue{Title: title, Body: body, Repo: repo})
}

// ClassifyIssue classifies a single issue.
func (t *Triage) ClassifyIssue(issue Issue) (Prediction, error) {
	pred, err := t.engine.Predict(model.Issue(issue))
	if err != nil {
		return Prediction{}, err
	}
	return predictionFromModel(pred), nil
}

// ClassifyBatch classifies multiple issues in a single batched encoder pass.
// More efficient than calling ClassifyIssue in a loop. Invalid issues fail
// their own slot; the batch itself only fails on context cancellation or an
// encoder error.
func (t *Triage) ClassifyBatch(ctx context.Context, issues []Issue) ([]Result, error) {
	in := make([]model.Issue, len(issues))
	for i, issue := range issues {
		in[i] = model.Issue(issue)
	}
	batch, err := t.engine.PredictBatch(ctx, in)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(batch))
	for i, br := range batch {
		results[i] = Result{Err: br.Err}
		if br.Err == nil {
			results[i].Prediction = predictionFromModel(br.Prediction)
		}
	}
	return results, nil
}

// Close releases model resources (ONNX runtime, memory). Must be called when
// the Triage instance is no longer needed.
func (t *Triage) Close() error {
	return t.engine.Close()
}
