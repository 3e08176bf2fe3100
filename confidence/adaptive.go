package confidence

import (
	"math"
	"sync"

	"github.com/HimashaHerath/webextract"
)

// MaxFeedback is the number of feedback entries an AdaptiveScorer keeps.
const MaxFeedback = 100

// Ensure AdaptiveScorer implements webextract.Scorer.
var _ webextract.Scorer = (*AdaptiveScorer)(nil)

// Feedback pairs a predicted confidence with the observed quality.
type Feedback struct {
	Predicted float64
	Actual    float64
}

// Stats summarizes recorded feedback.
type Stats struct {
	Count             int     `json:"count" yaml:"count"`
	MeanPredicted     float64 `json:"mean_predicted" yaml:"mean_predicted"`
	MeanActual        float64 `json:"mean_actual" yaml:"mean_actual"`
	MeanAbsoluteError float64 `json:"mean_error" yaml:"mean_error"`
	Correlation       float64 `json:"correlation" yaml:"correlation"`
}

// AdaptiveScorer scores like Scorer and records how well its predictions
// matched observed quality.
type AdaptiveScorer struct {
	*Scorer

	mu      sync.Mutex
	history []Feedback
}

// NewAdaptiveScorer creates an AdaptiveScorer with the given weights.
func NewAdaptiveScorer(cfg webextract.ConfidenceConfig) *AdaptiveScorer {
	return &AdaptiveScorer{Scorer: NewScorer(cfg)}
}

// RecordFeedback stores one observation, dropping the oldest entry once
// MaxFeedback entries are held.
func (a *AdaptiveScorer) RecordFeedback(predicted, actual float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, Feedback{Predicted: predicted, Actual: actual})
	if over := len(a.history) - MaxFeedback; over > 0 {
		a.history = append(a.history[:0:0], a.history[over:]...)
	}
}

// Stats returns calibration statistics over the recorded feedback. The
// zero Stats is returned when nothing was recorded.
func (a *AdaptiveScorer) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.history)
	if n == 0 {
		return Stats{}
	}
	var sumP, sumA, sumErr float64
	for _, f := range a.history {
		sumP += f.Predicted
		sumA += f.Actual
		sumErr += math.Abs(f.Predicted - f.Actual)
	}
	return Stats{
		Count:             n,
		MeanPredicted:     sumP / float64(n),
		MeanActual:        sumA / float64(n),
		MeanAbsoluteError: sumErr / float64(n),
		Correlation:       correlation(a.history),
	}
}

// correlation returns the Pearson correlation of predicted and actual
// values, or 0 when it is undefined.
func correlation(h []Feedback) float64 {
	n := float64(len(h))
	if len(h) < 2 {
		return 0
	}
	var sx, sy, sxy, sx2, sy2 float64
	for _, f := range h {
		sx += f.Predicted
		sy += f.Actual
		sxy += f.Predicted * f.Actual
		sx2 += f.Predicted * f.Predicted
		sy2 += f.Actual * f.Actual
	}
	den := math.Sqrt((n*sx2 - sx*sx) * (n*sy2 - sy*sy))
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
