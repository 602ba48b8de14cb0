package features

import (
	"testing"

	"github.com/crimson-sun/triage/internal/engine/normalizer"
)

func TestExtractStatsSignals(t *testing.T) {
	title := "Urgent: app broken!"
	body := "Why does it crash? See log:\n```\npanic\n```\nhttps://example.com/trace"
	norm := normalizer.Normalize(title, body)

	s := ExtractStats(title, body, norm)

	if s.TitleLength != float32(len(title)) {
		t.Errorf("TitleLength = %v, want %v", s.TitleLength, len(title))
	}
	if s.TitleWords != 3 {
		t.Errorf("TitleWords = %v, want 3", s.TitleWords)
	}
	// "urgent" + "broken" in the title.
	if s.TitleUrgent != 2 {
		t.Errorf("TitleUrgent = %v, want 2", s.TitleUrgent)
	}
	if s.TitleExclaim != 1 {
		t.Errorf("TitleExclaim = %v, want 1", s.TitleExclaim)
	}
	// "why" in the body, question mark present.
	if s.BodyQWords != 1 {
		t.Errorf("BodyQWords = %v, want 1", s.BodyQWords)
	}
	if s.BodyQMark != 1 {
		t.Errorf("BodyQMark = %v, want 1", s.BodyQMark)
	}
	if s.HasQuestions != 1 {
		t.Errorf("HasQuestions = %v, want 1", s.HasQuestions)
	}
	if s.CodeBlocks != 1 {
		t.Errorf("CodeBlocks = %v, want 1", s.CodeBlocks)
	}
	if s.URLs != 1 {
		t.Errorf("URLs = %v, want 1", s.URLs)
	}
	if s.UrgencyScore != s.TotalUrgent+s.TotalExclaims {
		t.Errorf("UrgencyScore = %v, want %v", s.UrgencyScore, s.TotalUrgent+s.TotalExclaims)
	}
}

func TestStatsVectorDim(t *testing.T) {
	var s Stats
	if got := len(s.Vector()); got != StatsDim {
		t.Fatalf("Vector() len = %d, StatsDim = %d", got, StatsDim)
	}
}

func TestExtractStatsEmpty(t *testing.T) {
	norm := normalizer.Normalize("", "")
	s := ExtractStats("", "", norm)
	for i, x := range s.Vector() {
		if x != 0 {
			t.Errorf("slot %d = %v, want 0 for empty issue", i, x)
		}
	}
}
