// Package postprocess turns raw model scores into an EmotionResult.
package postprocess

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/domain"
)

// Softmax converts scores to probabilities. The maximum is subtracted
// before exponentiating so large magnitudes cannot overflow.
func Softmax(scores []float32) []float64 {
	if len(scores) == 0 {
		return nil
	}

	maxScore := float64(scores[0])
	for _, s := range scores[1:] {
		maxScore = math.Max(maxScore, float64(s))
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(float64(s) - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

// ArgMax returns the index of the largest value, lowest index on ties, or -1
// for an empty slice.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// Synthesizer maps score vectors onto a fixed label order.
type Synthesizer struct {
	labels []string
}

// NewSynthesizer copies labels so later edits by the caller cannot change
// the order results are built with.
func NewSynthesizer(labels []string) *Synthesizer {
	return &Synthesizer{labels: append([]string(nil), labels...)}
}

// Labels returns the configured label order
func (s *Synthesizer) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Build turns scores into a result. face is nil when the center-crop
// fallback was classified. A score count that differs from the label count
// is a wiring bug, and Build panics on it.
func (s *Synthesizer) Build(scores []float32, face *domain.BoundingBox) domain.EmotionResult {
	if len(scores) != len(s.labels) {
		panic(fmt.Sprintf("postprocess: %d scores for %d labels", len(scores), len(s.labels)))
	}

	probs := Softmax(scores)
	best := ArgMax(probs)

	distribution := make(map[string]float64, len(s.labels))
	for i, label := range s.labels {
		distribution[label] = probs[i]
	}

	result := domain.EmotionResult{
		PredictedEmotion:     s.labels[best],
		Confidence:           probs[best],
		EmotionProbabilities: distribution,
		FaceDetected:         face != nil,
	}
	if face != nil {
		box := *face
		result.FaceInfo = &box
	}

	return result
}
