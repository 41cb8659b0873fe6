package core

import "context"

// Ranking is the raw output of a zero-shot scorer: Labels[i] scored Scores[i].
type Ranking struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ZeroShotScorer ranks candidate labels against a text.
type ZeroShotScorer interface {
	Score(ctx context.Context, text string, labels []string) (*Ranking, error)
}

// Prediction is the best-scoring label for a text. Label is nil when the
// scorer answered with nothing usable.
type Prediction struct {
	Label *string
	Score float64
}

// DocumentClassifier assigns one label to a text.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
