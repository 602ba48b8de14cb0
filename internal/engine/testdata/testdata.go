// Package testdata provides shared fixtures: canonical sample issues, a
// deterministic stub encoder, and a small synthetic model artifact whose
// trees route on known vocabulary terms. The synthetic artifact lets every
// engine-level test run without the ONNX encoder or a trained bundle.
package testdata

import (
	"github.com/crimson-sun/triage/internal/engine/classifier"
	"github.com/crimson-sun/triage/internal/engine/features"
	"github.com/crimson-sun/triage/internal/engine/lexical"
	"github.com/crimson-sun/triage/internal/model"
	"github.com/crimson-sun/triage/internal/store"
)

// Labels is the synthetic artifact's closed category set, index-aligned with
// the ensemble's classes.
var Labels = []string{"bug", "feature_request", "documentation", "question"}

// Canonical sample issues used across package tests.
var (
	BugIssue = model.Issue{
		Title: "App Crashes on Launch (iOS 18 Beta)",
		Body:  "The app crashes immediately after launch on the iOS 18 beta. Reproduced on iPhone 15 and 16.",
		Repo:  "acme/mobile-app",
	}

	FeatureIssue = model.Issue{
		Title: "Add Dark Mode Toggle",
		Body:  "Please add a manual dark mode toggle in Settings. System preference detection would be a bonus.",
		Repo:  "acme/dashboard",
	}

	DocsIssue = model.Issue{
		Title: "Clarify API Authentication Docs",
		Body:  "The current docs skips explaining token refresh. A worked example would help a lot.",
		Repo:  "acme/api",
	}

	QuestionIssue = model.Issue{
		Title: "How do I configure retries",
		Body:  "How should the client be configured to retry failed uploads",
		Repo:  "acme/client",
	}

	EmptyIssue = model.Issue{
		Title: "   ",
		Body:  "",
		Repo:  "acme/misc",
	}
)

// StubDim is the stub encoder's embedding dimension.
const StubDim = 4

// StubEmbedder is a deterministic in-process stand-in for the ONNX encoder.
// Identical text always yields the identical vector.
type StubEmbedder struct{}

func (StubEmbedder) Dim() int { return StubDim }

func (StubEmbedder) Embed(text string) ([]float32, error) {
	v := make([]float32, StubDim)
	for i, r := range text {
		v[i%StubDim] += float32(r%13) / 100
	}
	return v, nil
}

func (s StubEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (StubEmbedder) Close() error { return nil }

// Layout is the synthetic artifact's feature geometry:
// 8 lexical + 4 semantic + 20 stats + 4 repo slots = 36.
var Layout = features.Layout{
	LexicalDim:  8,
	SemanticDim: StubDim,
	StatsDim:    features.StatsDim,
	RepoSlots:   4,
}

// Terms is the synthetic fitted vocabulary. The ensemble's splits reference
// these slots directly.
var Terms = []lexical.Term{
	{Text: "crash", Index: 0, IDF: 2},
	{Text: "crashes", Index: 1, IDF: 2},
	{Text: "error", Index: 2, IDF: 2},
	{Text: "add", Index: 3, IDF: 2},
	{Text: "toggle", Index: 4, IDF: 2},
	{Text: "docs", Index: 5, IDF: 2},
	{Text: "documentation", Index: 6, IDF: 2},
	{Text: "how", Index: 7, IDF: 2},
}

// Ensemble routes on the lexical slots above: one boosting round, one tree
// per class in the round-robin layout. Split threshold 0.1 means "term
// present" after L2 normalization.
func Ensemble() classifier.Ensemble {
	const th = 0.1
	bug := classifier.Tree{
		Feature:   []int32{0, 1, 0, 2, 0, 0, 0},
		Threshold: []float32{th, th, 0, th, 0, 0, 0},
		Left:      []int32{1, 3, -1, 5, -1, -1, -1},
		Right:     []int32{2, 4, -1, 6, -1, -1, -1},
		Value:     []float32{0, 0, 3, 0, 3, -1, 2},
	}
	feature := classifier.Tree{
		Feature:   []int32{3, 4, 0, 0, 0},
		Threshold: []float32{th, th, 0, 0, 0},
		Left:      []int32{1, 3, -1, -1, -1},
		Right:     []int32{2, 4, -1, -1, -1},
		Value:     []float32{0, 0, 2.5, -1, 2},
	}
	docs := classifier.Tree{
		Feature:   []int32{6, 5, 0, 0, 0},
		Threshold: []float32{th, th, 0, 0, 0},
		Left:      []int32{1, 3, -1, -1, -1},
		Right:     []int32{2, 4, -1, -1, -1},
		Value:     []float32{0, 0, 2.5, -1, 2.5},
	}
	question := classifier.Tree{
		Feature:   []int32{7, 0, 0},
		Threshold: []float32{th, 0, 0},
		Left:      []int32{1, -1, -1},
		Right:     []int32{2, -1, -1},
		Value:     []float32{0, -1, 2},
	}
	return classifier.Ensemble{
		NumClass:   len(Labels),
		NumFeature: Layout.Dim(),
		BaseScore:  0.5,
		Trees:      []classifier.Tree{bug, feature, docs, question},
	}
}

// Artifact builds the synthetic in-memory artifact. The encoder reference is
// empty: tests pair it with StubEmbedder instead of the ONNX encoder.
func Artifact() *store.Artifact {
	return &store.Artifact{
		Manifest: store.Manifest{
			SchemaVersion: store.SchemaVersion,
			ID:            "01TESTARTIFACT0000000000",
			Labels:        append([]string(nil), Labels...),
			Layout:        Layout,
			Repos:         map[string]int{"acme/mobile-app": 0, "acme/dashboard": 1},
			Training:      store.TrainingMeta{Examples: 128, Accuracy: 0.87},
		},
		Terms:    append([]lexical.Term(nil), Terms...),
		Ensemble: Ensemble(),
	}
}
