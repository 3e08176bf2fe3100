package confidence_test

import (
	"strings"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/confidence"
	"github.com/stretchr/testify/assert"
)

func TestScorer_Score(t *testing.T) {
	t.Parallel()

	t.Run("adds every earned bonus", func(t *testing.T) {
		t.Parallel()

		s := confidence.NewScorer(webextract.DefaultConfidenceConfig())
		content := &webextract.ExtractedContent{
			Title:       "Title",
			Description: "Description",
			MainContent: strings.Repeat("a", 1200),
		}
		result := webextract.NewResultBuilder().
			Set("summary", "A summary that is long enough.").
			Set("topics", []any{"go"}).
			Set("category", "technology").
			Set("sentiment", "neutral").
			Set("entities", map[string]any{"people": []any{"Ada"}}).
			Default()

		// base, title, description, length, structured, summary, topics,
		// entities and rich data.
		want := 0.1 + 0.1 + 0.05 + 0.2 + 0.2 + 0.1 + 0.05 + 0.05 + 0.1
		assert.InDelta(t, min(want, 1.0), s.Score(content, result), 1e-9)
	})

	t.Run("scores an error result at the floor", func(t *testing.T) {
		t.Parallel()

		s := confidence.NewScorer(webextract.DefaultConfidenceConfig())
		content := &webextract.ExtractedContent{MainContent: "short"}

		got := s.Score(content, webextract.NewErrorResult("boom"))

		assert.Zero(t, got)
	})

	t.Run("counts rich data from populated fields only", func(t *testing.T) {
		t.Parallel()

		s := confidence.NewScorer(webextract.DefaultConfidenceConfig())
		content := &webextract.ExtractedContent{MainContent: strings.Repeat("a", 100)}
		result := webextract.NewResultBuilder().
			Set("a", "x").
			Set("b", "x").
			Set("c", "x").
			Set("d", "  ").
			Set("e", []any{}).
			Default()

		// base, length and structured; three populated fields miss the
		// threshold of four.
		assert.InDelta(t, 0.1+0.05+0.2, s.Score(content, result), 1e-9)
	})

	t.Run("derives the rich data threshold from a fraction", func(t *testing.T) {
		t.Parallel()

		cfg := webextract.DefaultConfidenceConfig()
		cfg.RichDataFraction = 0.5
		s := confidence.NewScorer(cfg)
		content := &webextract.ExtractedContent{MainContent: strings.Repeat("a", 100)}
		result := webextract.NewResultBuilder().
			Set("a", "x").
			Set("b", "").
			Default()

		assert.InDelta(t, 0.1+0.05+0.2+0.1, s.Score(content, result), 1e-9)
	})

	t.Run("penalizes insufficient content", func(t *testing.T) {
		t.Parallel()

		s := confidence.NewScorer(webextract.DefaultConfidenceConfig())
		content := &webextract.ExtractedContent{
			Title:       "T",
			MainContent: "   " + strings.Repeat("a", 49) + "   ",
		}

		assert.InDelta(t, 0.0, s.Score(content, nil), 1e-9)
		assert.InDelta(t, 0.1+0.1, s.Score(&webextract.ExtractedContent{
			Title:       "T",
			MainContent: strings.Repeat("a", 50),
		}, nil), 1e-9)
	})

	t.Run("stays within bounds", func(t *testing.T) {
		t.Parallel()

		cfg := webextract.DefaultConfidenceConfig()
		cfg.BaseScore = 5
		s := confidence.NewScorer(cfg)

		assert.Equal(t, 1.0, s.Score(&webextract.ExtractedContent{}, nil))

		cfg.BaseScore = -5
		s = confidence.NewScorer(cfg)

		assert.Equal(t, 0.0, s.Score(nil, nil))
	})
}

func TestAdaptiveScorer(t *testing.T) {
	t.Parallel()

	t.Run("reports zero stats without feedback", func(t *testing.T) {
		t.Parallel()

		a := confidence.NewAdaptiveScorer(webextract.DefaultConfidenceConfig())

		assert.Equal(t, confidence.Stats{}, a.Stats())
	})

	t.Run("computes calibration statistics", func(t *testing.T) {
		t.Parallel()

		a := confidence.NewAdaptiveScorer(webextract.DefaultConfidenceConfig())
		a.RecordFeedback(0.2, 0.3)
		a.RecordFeedback(0.4, 0.5)
		a.RecordFeedback(0.6, 0.7)

		st := a.Stats()

		assert.Equal(t, 3, st.Count)
		assert.InDelta(t, 0.4, st.MeanPredicted, 1e-9)
		assert.InDelta(t, 0.5, st.MeanActual, 1e-9)
		assert.InDelta(t, 0.1, st.MeanAbsoluteError, 1e-9)
		assert.InDelta(t, 1.0, st.Correlation, 1e-9)
	})

	t.Run("keeps a bounded history", func(t *testing.T) {
		t.Parallel()

		a := confidence.NewAdaptiveScorer(webextract.DefaultConfidenceConfig())
		for range confidence.MaxFeedback + 20 {
			a.RecordFeedback(0.5, 0.5)
		}

		st := a.Stats()

		assert.Equal(t, confidence.MaxFeedback, st.Count)
		assert.Zero(t, st.Correlation)
	})
}
