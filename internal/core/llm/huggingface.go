package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/markdave123-py/scandoc/internal/core"
)

// HuggingFaceScorer calls a hosted zero-shot-classification pipeline.
type HuggingFaceScorer struct {
	endpoint string
	model    string
	token    string
	client   *http.Client
}

var _ core.ZeroShotScorer = (*HuggingFaceScorer)(nil)

// HuggingFaceConfig configures the HuggingFace scorer.
type HuggingFaceConfig struct {
	// Endpoint is the inference API base URL.
	Endpoint string
	// Model is a model id such as MoritzLaurer/mDeBERTa-v3-base-mnli-xnli.
	Model string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout is the HTTP request timeout (default: 60s).
	Timeout time.Duration
}

func NewHuggingFaceScorer(cfg HuggingFaceConfig) *HuggingFaceScorer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api-inference.huggingface.co"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HuggingFaceScorer{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    strings.Trim(cfg.Model, "/"),
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type hfPair struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (s *HuggingFaceScorer) Score(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: hfParameters{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := s.endpoint + "/models/" + s.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return decodeHFRanking(raw)
}

// decodeHFRanking accepts the pipeline shape {"labels":[],"scores":[]} and
// the router shape [{"label":..,"score":..}].
func decodeHFRanking(raw []byte) (*core.Ranking, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pairs []hfPair
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		rk := &core.Ranking{}
		for _, p := range pairs {
			rk.Labels = append(rk.Labels, p.Label)
			rk.Scores = append(rk.Scores, p.Score)
		}
		return rk, nil
	}

	var rk core.Ranking
	if err := json.Unmarshal(trimmed, &rk); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rk, nil
}
