package testdata

import (
	"testing"

	"github.com/crimson-sun/triage/internal/engine/classifier"
	"github.com/crimson-sun/triage/internal/engine/features"
	"github.com/crimson-sun/triage/internal/engine/lexical"
)

// The fixtures are hand-built; these checks catch drift when they are edited.

func TestTermsFormValidVocabulary(t *testing.T) {
	vocab, err := lexical.NewVocabulary(Terms)
	if err != nil {
		t.Fatalf("NewVocabulary() error: %v", err)
	}
	if vocab.Size() != Layout.LexicalDim {
		t.Errorf("vocab size = %d, layout says %d", vocab.Size(), Layout.LexicalDim)
	}
}

func TestEnsemblePassesValidation(t *testing.T) {
	ens := Ensemble()
	if _, err := classifier.New(ens); err != nil {
		t.Fatalf("classifier.New() error: %v", err)
	}
	if ens.NumClass != len(Labels) {
		t.Errorf("NumClass = %d, want %d", ens.NumClass, len(Labels))
	}
	if ens.NumFeature != Layout.Dim() {
		t.Errorf("NumFeature = %d, want %d", ens.NumFeature, Layout.Dim())
	}
}

func TestLayoutDim(t *testing.T) {
	want := 8 + StubDim + features.StatsDim + 4
	if Layout.Dim() != want {
		t.Errorf("Layout.Dim() = %d, want %d", Layout.Dim(), want)
	}
}

func TestStubEmbedderDeterministic(t *testing.T) {
	var emb StubEmbedder
	a, _ := emb.Embed(BugIssue.Body)
	b, _ := emb.Embed(BugIssue.Body)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vec[%d] differs between identical calls", i)
		}
	}
	if len(a) != emb.Dim() {
		t.Errorf("len(vec) = %d, want %d", len(a), emb.Dim())
	}
}
