// Package confidence scores how much an extraction record can be trusted.
package confidence

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/HimashaHerath/webextract"
)

// Ensure Scorer implements webextract.Scorer.
var _ webextract.Scorer = (*Scorer)(nil)

// Scorer computes an additive confidence score from page and result
// quality signals.
type Scorer struct {
	Config webextract.ConfidenceConfig
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(cfg webextract.ConfidenceConfig) *Scorer {
	return &Scorer{Config: cfg}
}

// Score returns a value within [MinScore, MaxScore]. It never panics; an
// unexpected failure scores MinScore.
func (s *Scorer) Score(content *webextract.ExtractedContent, result webextract.StructuredResult) (score float64) {
	defer func() {
		if recover() != nil {
			score = s.Config.MinScore
		}
	}()

	score = s.Config.BaseScore
	score += s.contentQuality(content)
	score += s.structuredQuality(result)
	score += s.penalties(content, result)
	return s.clamp(score)
}

func (s *Scorer) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Config.MinScore
	}
	return max(s.Config.MinScore, min(s.Config.MaxScore, v))
}

func (s *Scorer) contentQuality(content *webextract.ExtractedContent) float64 {
	if content == nil {
		return 0
	}
	var score float64
	if strings.TrimSpace(content.Title) != "" {
		score += s.Config.TitleBonus
	}
	if strings.TrimSpace(content.Description) != "" {
		score += s.Config.DescriptionBonus
	}
	return score + s.lengthBonus(utf8.RuneCountInString(content.MainContent))
}

// lengthBonus returns the bonus of the highest threshold n reaches.
func (s *Scorer) lengthBonus(n int) float64 {
	bonuses := slices.SortedFunc(slices.Values(s.Config.LengthBonuses), func(a, b webextract.LengthBonus) int {
		return cmp.Compare(b.MinLength, a.MinLength)
	})
	for _, b := range bonuses {
		if n >= b.MinLength {
			return b.Bonus
		}
	}
	return 0
}

func (s *Scorer) structuredQuality(result webextract.StructuredResult) float64 {
	if result == nil || hasError(result) {
		return 0
	}
	m := result.Map()
	if len(m) == 0 {
		return 0
	}

	score := s.Config.StructuredBase
	if summary, _ := m[webextract.FieldSummary].(string); summary != "" && utf8.RuneCountInString(summary) >= s.Config.SummaryMinLength {
		score += s.Config.SummaryBonus
	}
	if populated(m[webextract.FieldTopics]) {
		score += s.Config.TopicsBonus
	}
	if hasEntities(m[webextract.FieldEntities]) {
		score += s.Config.EntitiesBonus
	}
	if countPopulated(m) >= s.richDataThreshold(len(m)) {
		score += s.Config.RichDataBonus
	}
	return score
}

// richDataThreshold returns the number of populated fields that earns the
// rich data bonus for a result with n fields.
func (s *Scorer) richDataThreshold(n int) int {
	if s.Config.RichDataFraction > 0 {
		return max(1, int(math.Ceil(s.Config.RichDataFraction*float64(n))))
	}
	return s.Config.RichDataThreshold
}

func (s *Scorer) penalties(content *webextract.ExtractedContent, result webextract.StructuredResult) float64 {
	var p float64
	if result != nil && hasError(result) {
		p += s.Config.ErrorPenalty
	}
	if content == nil || utf8.RuneCountInString(strings.TrimSpace(content.MainContent)) < webextract.MinContentLength {
		p += s.Config.EmptyContentPenalty
	}
	return p
}

func hasError(result webextract.StructuredResult) bool {
	return result.ErrorMessage() != "" || result.ExtractionError()
}

func hasEntities(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	total := 0
	for _, e := range m {
		switch t := e.(type) {
		case []any:
			total += len(t)
		default:
			if populated(t) {
				total++
			}
		}
	}
	return total > 0
}

func countPopulated(m map[string]any) int {
	n := 0
	for k, v := range m {
		if k == webextract.FieldError || k == webextract.FieldExtractionError {
			continue
		}
		if populated(v) {
			n++
		}
	}
	return n
}

// populated reports whether v carries meaningful content.
func populated(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return true
}
