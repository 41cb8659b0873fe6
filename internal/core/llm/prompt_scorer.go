package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/markdave123-py/scandoc/internal/core"
)

const rankingInstruction = `You are a zero-shot document classifier.
Score how well the document matches each candidate label with a probability between 0 and 1.
Scores over all labels must sum to 1.
Answer with one JSON object and nothing else: {"labels": [...], "scores": [...]}
using the candidate labels verbatim, in any order.`

// PromptScorer asks a generative model to rank candidate labels.
type PromptScorer struct {
	llm core.LLMProvider
}

var _ core.ZeroShotScorer = (*PromptScorer)(nil)

func NewPromptScorer(llm core.LLMProvider) *PromptScorer {
	return &PromptScorer{llm: llm}
}

func (s *PromptScorer) Score(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	cands, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Candidate labels: %s\n\nDocument:\n%s", cands, text)

	out, err := s.llm.Generate(ctx, rankingInstruction, user)
	if err != nil {
		return nil, err
	}
	return parseRanking(out)
}

// parseRanking reads a {labels, scores} object, tolerating a Markdown code
// fence around it. A reply that is not JSON is an error; a well formed but
// inconsistent ranking is passed through for the classifier to judge.
func parseRanking(s string) (*core.Ranking, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if s == "" {
		return nil, nil
	}
	var rk core.Ranking
	if err := json.Unmarshal([]byte(s), &rk); err != nil {
		return nil, fmt.Errorf("decode ranking: %w", err)
	}
	return &rk, nil
}
