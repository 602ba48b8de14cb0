package features

import (
	"strings"

	"github.com/crimson-sun/triage/internal/engine/normalizer"
)

// questionWords and urgentWords are the fixed signal lexicons the model was
// trained with. Changing them invalidates trained ensembles.
var questionWords = []string{"how", "what", "why", "when", "where", "which", "who"}

var urgentWords = []string{
	"urgent", "critical", "asap", "immediate", "emergency",
	"broken", "error", "serious", "security",
}

// StatsDim is the number of surface-statistic features.
const StatsDim = 20

// Stats holds surface signals extracted from the raw title and body. They
// complement the lexical and semantic vectors with structure the text itself
// loses in normalization (question marks, urgency markers, code density).
type Stats struct {
	TitleLength   float32
	BodyLength    float32
	TitleWords    float32
	BodyWords     float32
	CodeBlocks    float32
	URLs          float32
	TitleQWords   float32
	TitleQMark    float32
	BodyQWords    float32
	BodyQMark     float32
	TotalQWords   float32
	TotalQMarks   float32
	HasQuestions  float32
	TitleUrgent   float32
	TitleExclaim  float32
	BodyUrgent    float32
	BodyExclaim   float32
	TotalUrgent   float32
	TotalExclaims float32
	UrgencyScore  float32
}

// ExtractStats computes surface statistics from the raw issue text and the
// markup counts the normalizer stripped out.
func ExtractStats(title, body string, norm normalizer.Text) Stats {
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(body)

	s := Stats{
		TitleLength: float32(len(title)),
		BodyLength:  float32(len(body)),
		TitleWords:  float32(len(strings.Fields(title))),
		BodyWords:   float32(len(strings.Fields(body))),
		CodeBlocks:  float32(norm.CodeBlocks),
		URLs:        float32(norm.URLs),
	}

	s.TitleQWords = countOccurrences(titleLower, questionWords)
	s.BodyQWords = countOccurrences(bodyLower, questionWords)
	s.TitleQMark = boolSignal(strings.Contains(title, "?"))
	s.BodyQMark = boolSignal(strings.Contains(body, "?"))
	s.TotalQWords = s.TitleQWords + s.BodyQWords
	s.TotalQMarks = s.TitleQMark + s.BodyQMark
	s.HasQuestions = boolSignal(s.TotalQWords > 0 || s.TotalQMarks > 0)

	s.TitleUrgent = countOccurrences(titleLower, urgentWords)
	s.BodyUrgent = countOccurrences(bodyLower, urgentWords)
	s.TitleExclaim = boolSignal(strings.Contains(title, "!"))
	s.BodyExclaim = boolSignal(strings.Contains(body, "!"))
	s.TotalUrgent = s.TitleUrgent + s.BodyUrgent
	s.TotalExclaims = s.TitleExclaim + s.BodyExclaim
	s.UrgencyScore = s.TotalUrgent + s.TotalExclaims

	return s
}

// Vector returns the stats in their fixed feature order. The order is part of
// the model contract and must never be reordered.
func (s Stats) Vector() []float32 {
	return []float32{
		s.TitleLength, s.BodyLength, s.TitleWords, s.BodyWords,
		s.CodeBlocks, s.URLs,
		s.TitleQWords, s.TitleQMark, s.BodyQWords, s.BodyQMark,
		s.TotalQWords, s.TotalQMarks, s.HasQuestions,
		s.TitleUrgent, s.TitleExclaim, s.BodyUrgent, s.BodyExclaim,
		s.TotalUrgent, s.TotalExclaims, s.UrgencyScore,
	}
}

func countOccurrences(text string, words []string) float32 {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return float32(n)
}

func boolSignal(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
