package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/crimson-sun/triage/internal/engine/testdata"
	"github.com/crimson-sun/triage/internal/model"
	"github.com/crimson-sun/triage/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(testdata.Artifact(), testdata.StubEmbedder{}, Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return eng
}

func TestPredictScenarios(t *testing.T) {
	eng := newTestEngine(t)

	cases := []struct {
		name  string
		issue model.Issue
		want  string
	}{
		{"bug report", testdata.BugIssue, "bug"},
		{"feature request", testdata.FeatureIssue, "feature_request"},
		{"documentation", testdata.DocsIssue, "documentation"},
		{"question", testdata.QuestionIssue, "question"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := eng.Predict(tc.issue)
			if err != nil {
				t.Fatalf("Predict() error: %v", err)
			}
			if pred.Primary.Category != tc.want {
				t.Errorf("Primary = %q, want %q", pred.Primary.Category, tc.want)
			}
		})
	}
}

func TestPredictHighConfidenceBug(t *testing.T) {
	eng := newTestEngine(t)

	pred, err := eng.Predict(testdata.BugIssue)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if pred.Primary.Confidence <= 0.85 {
		t.Errorf("Confidence = %v, want > 0.85", pred.Primary.Confidence)
	}
	if pred.Recommendation != model.AutoRoute {
		t.Errorf("Recommendation = %q, want %q", pred.Recommendation, model.AutoRoute)
	}
	if !pred.Primary.ActionNeeded {
		t.Error("ActionNeeded = false for a bug")
	}
}

func TestPredictInvariants(t *testing.T) {
	eng := newTestEngine(t)

	for _, issue := range []model.Issue{
		testdata.BugIssue, testdata.FeatureIssue, testdata.DocsIssue,
		testdata.QuestionIssue, testdata.EmptyIssue,
	} {
		pred, err := eng.Predict(issue)
		if err != nil {
			t.Fatalf("Predict(%q) error: %v", issue.Title, err)
		}
		if pred.Primary.Confidence < 0 || pred.Primary.Confidence > 1 {
			t.Errorf("%q: primary confidence %v outside [0,1]", issue.Title, pred.Primary.Confidence)
		}
		if len(pred.Secondary) > 3 {
			t.Errorf("%q: %d secondaries, cap is 3", issue.Title, len(pred.Secondary))
		}
		for _, s := range pred.Secondary {
			if s.Confidence > pred.Primary.Confidence {
				t.Errorf("%q: secondary %v above primary %v", issue.Title, s.Confidence, pred.Primary.Confidence)
			}
			if s.Confidence <= 0.15 {
				t.Errorf("%q: secondary %v at or below threshold", issue.Title, s.Confidence)
			}
		}
	}
}

func TestPredictEmptyIssue(t *testing.T) {
	eng := newTestEngine(t)

	pred, err := eng.Predict(testdata.EmptyIssue)
	if err != nil {
		t.Fatalf("Predict() error on empty issue: %v", err)
	}
	// No usable signal: uniform distribution, lowest confidence band.
	if pred.Recommendation != model.ManualTriage {
		t.Errorf("Recommendation = %q, want %q", pred.Recommendation, model.ManualTriage)
	}
}

func TestPredictDeterminism(t *testing.T) {
	eng := newTestEngine(t)

	first, err := eng.Predict(testdata.BugIssue)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := eng.Predict(testdata.BugIssue)
		if err != nil {
			t.Fatalf("Predict() error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: prediction differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestPredictBatchMatchesSingle(t *testing.T) {
	eng := newTestEngine(t)

	issues := []model.Issue{
		testdata.BugIssue, testdata.FeatureIssue, testdata.DocsIssue, testdata.EmptyIssue,
	}

	results, err := eng.PredictBatch(context.Background(), issues)
	if err != nil {
		t.Fatalf("PredictBatch() error: %v", err)
	}
	if len(results) != len(issues) {
		t.Fatalf("len = %d, want %d", len(results), len(issues))
	}

	for i, issue := range issues {
		if results[i].Err != nil {
			t.Fatalf("slot %d: unexpected error %v", i, results[i].Err)
		}
		single, err := eng.Predict(issue)
		if err != nil {
			t.Fatalf("Predict(%d) error: %v", i, err)
		}
		if !reflect.DeepEqual(results[i].Prediction, single) {
			t.Errorf("slot %d: batch != single:\n%+v\n%+v", i, results[i].Prediction, single)
		}
	}
}

func TestPredictBatchIsolatesInputErrors(t *testing.T) {
	eng := newTestEngine(t)

	issues := []model.Issue{
		testdata.BugIssue,
		{Title: "bad \xff\xfe title", Body: "x", Repo: "r"},
		testdata.DocsIssue,
	}

	results, err := eng.PredictBatch(context.Background(), issues)
	if err != nil {
		t.Fatalf("PredictBatch() error: %v", err)
	}

	var inputErr *InputError
	if !errors.As(results[1].Err, &inputErr) {
		t.Fatalf("slot 1 error = %v, want InputError", results[1].Err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("healthy slots affected by a malformed sibling")
	}
	if results[0].Prediction.Primary.Category != "bug" {
		t.Errorf("slot 0 = %q, want bug", results[0].Prediction.Primary.Category)
	}
	if results[2].Prediction.Primary.Category != "documentation" {
		t.Errorf("slot 2 = %q, want documentation", results[2].Prediction.Primary.Category)
	}
}

func TestPredictBatchCancellation(t *testing.T) {
	eng := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.PredictBatch(ctx, []model.Issue{testdata.BugIssue}); err == nil {
		t.Fatal("PredictBatch() succeeded on cancelled context")
	}

	// A cancelled batch must not corrupt subsequent calls.
	pred, err := eng.Predict(testdata.BugIssue)
	if err != nil {
		t.Fatalf("Predict() after cancelled batch: %v", err)
	}
	if pred.Primary.Category != "bug" {
		t.Errorf("Primary = %q, want bug", pred.Primary.Category)
	}
}

func TestPredictRejectsInvalidUTF8(t *testing.T) {
	eng := newTestEngine(t)

	var inputErr *InputError
	_, err := eng.Predict(model.Issue{Title: "\xff", Body: "", Repo: ""})
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want InputError", err)
	}
}

func TestOptionsExplicitZero(t *testing.T) {
	f64 := func(v float64) *float64 { return &v }
	intp := func(v int) *int { return &v }

	t.Run("zero secondary threshold admits all nonzero categories", func(t *testing.T) {
		eng, err := New(testdata.Artifact(), testdata.StubEmbedder{}, Options{SecondaryThreshold: f64(0)})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		pred, err := eng.Predict(testdata.BugIssue)
		if err != nil {
			t.Fatalf("Predict() error: %v", err)
		}
		// Every non-primary class carries a small nonzero probability; with
		// the default 0.15 threshold none of them would survive.
		if len(pred.Secondary) != 3 {
			t.Errorf("len(Secondary) = %d, want 3 (threshold 0 treated as default?)", len(pred.Secondary))
		}
	})

	t.Run("zero max secondary disables suggestions", func(t *testing.T) {
		eng, err := New(testdata.Artifact(), testdata.StubEmbedder{},
			Options{SecondaryThreshold: f64(0), MaxSecondary: intp(0)})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		pred, err := eng.Predict(testdata.BugIssue)
		if err != nil {
			t.Fatalf("Predict() error: %v", err)
		}
		if len(pred.Secondary) != 0 {
			t.Errorf("len(Secondary) = %d, want 0", len(pred.Secondary))
		}
	})

	t.Run("zero band low keeps everything above manual triage", func(t *testing.T) {
		eng, err := New(testdata.Artifact(), testdata.StubEmbedder{}, Options{BandLow: f64(0)})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		pred, err := eng.Predict(testdata.EmptyIssue)
		if err != nil {
			t.Fatalf("Predict() error: %v", err)
		}
		// Uniform distribution sits in the medium band when low is 0.
		if pred.Recommendation != model.SuggestRoute {
			t.Errorf("Recommendation = %q, want %q", pred.Recommendation, model.SuggestRoute)
		}
	})
}

func TestNewDimensionMismatch(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(a *store.Artifact)
	}{
		{"vocabulary vs layout", func(a *store.Artifact) { a.Manifest.Layout.LexicalDim++ }},
		{"encoder vs layout", func(a *store.Artifact) { a.Manifest.Layout.SemanticDim++ }},
		{"combiner vs ensemble", func(a *store.Artifact) { a.Ensemble.NumFeature-- }},
		{"labels vs classes", func(a *store.Artifact) { a.Manifest.Labels = a.Manifest.Labels[:3] }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			art := testdata.Artifact()
			tc.mutate(art)
			_, err := New(art, testdata.StubEmbedder{}, Options{})
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("New() err = %v, want ErrDimensionMismatch", err)
			}
		})
	}
}
