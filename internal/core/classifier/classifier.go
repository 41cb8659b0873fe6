// Package classifier assigns one label from a fixed candidate set to a text
// using a zero-shot scorer.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/markdave123-py/scandoc/internal/core"
	"github.com/markdave123-py/scandoc/internal/models"
)

// Classifier is safe for concurrent use; its label set never changes.
type Classifier struct {
	labels    []string
	scorer    core.ZeroShotScorer
	maxTokens int
}

var _ core.DocumentClassifier = (*Classifier)(nil)

type Option func(*Classifier)

// WithMaxTokens truncates input text to roughly n tokens. n <= 0 disables it.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) { c.maxTokens = n }
}

// New copies labels. scorer may be nil only when labels is empty.
func New(labels []string, scorer core.ZeroShotScorer, opts ...Option) *Classifier {
	c := &Classifier{
		labels: append([]string(nil), labels...),
		scorer: scorer,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Labels returns a copy of the candidate set.
func (c *Classifier) Labels() []string { return append([]string(nil), c.labels...) }

// Classify returns the best scoring candidate label.
//
// With an empty label set the result is "Unknown" at 0 and the scorer is not
// consulted. A ranking that cannot be interpreted yields a nil label at 0.
// Scorer errors are returned unchanged in meaning, wrapped with context.
func (c *Classifier) Classify(ctx context.Context, text string) (core.Prediction, error) {
	if len(c.labels) == 0 {
		unknown := models.LabelUnknown
		return core.Prediction{Label: &unknown}, nil
	}
	if c.scorer == nil {
		return core.Prediction{}, fmt.Errorf("classifier: no scorer configured")
	}

	rk, err := c.scorer.Score(ctx, truncate(text, c.maxTokens), c.Labels())
	if err != nil {
		return core.Prediction{}, fmt.Errorf("zero-shot scoring: %w", err)
	}
	return best(rk), nil
}

// best picks the first maximum of a parallel label/score ranking.
func best(rk *core.Ranking) core.Prediction {
	if rk == nil || len(rk.Labels) == 0 || len(rk.Labels) != len(rk.Scores) {
		return core.Prediction{}
	}
	idx := 0
	for i, s := range rk.Scores {
		if math.IsNaN(s) {
			return core.Prediction{}
		}
		if s > rk.Scores[idx] {
			idx = i
		}
	}
	label := rk.Labels[idx]
	return core.Prediction{Label: &label, Score: clamp(rk.Scores[idx])}
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// approxTokens estimates tokens at about four runes each.
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}

func truncate(s string, maxTokens int) string {
	if maxTokens <= 0 || approxTokens(s) <= maxTokens {
		return s
	}
	return string([]rune(s)[:maxTokens*4])
}
