package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/markdave123-py/scandoc/internal/core"
)

// EmbeddingScorer ranks labels by cosine similarity between the text and
// label embeddings, normalised with a softmax.
type EmbeddingScorer struct {
	emb core.EmbeddingProvider
	// Temperature sharpens the softmax; similarities differ by small margins.
	Temperature float64
}

var _ core.ZeroShotScorer = (*EmbeddingScorer)(nil)

func NewEmbeddingScorer(emb core.EmbeddingProvider) *EmbeddingScorer {
	return &EmbeddingScorer{emb: emb, Temperature: 0.05}
}

func (s *EmbeddingScorer) Score(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	vecs, err := s.emb.EmbedTexts(ctx, append([]string{text}, labels...))
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(labels)+1 {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(labels)+1)
	}

	sims := make([]float64, len(labels))
	for i := range labels {
		sims[i] = cosine(vecs[0], vecs[i+1])
	}
	return &core.Ranking{
		Labels: append([]string(nil), labels...),
		Scores: softmax(sims, s.Temperature),
	}, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func softmax(xs []float64, temp float64) []float64 {
	if temp <= 0 {
		temp = 1
	}
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	maxv := xs[0]
	for _, x := range xs[1:] {
		maxv = math.Max(maxv, x)
	}
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp((x - maxv) / temp)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
