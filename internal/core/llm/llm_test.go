package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestHuggingFaceScorer(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantLabels []string
		wantScores []float64
		wantErr    bool
	}{
		{"pipeline shape", 200, `{"sequence":"x","labels":["invoice","letter"],"scores":[0.9,0.1]}`, []string{"invoice", "letter"}, []float64{0.9, 0.1}, false},
		{"router shape", 200, `[{"label":"letter","score":0.6},{"label":"invoice","score":0.4}]`, []string{"letter", "invoice"}, []float64{0.6, 0.4}, false},
		{"server error", 503, `{"error":"Model is currently loading"}`, nil, nil, true},
		{"not json", 200, `<html>`, nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq hfRequest
			var gotAuth, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.Path
				json.NewDecoder(r.Body).Decode(&gotReq)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewHuggingFaceScorer(HuggingFaceConfig{Endpoint: srv.URL + "/", Model: "org/model", Token: "hf_secret"})
			rk, err := s.Score(context.Background(), "some text", []string{"invoice", "letter"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if !reflect.DeepEqual(rk.Labels, tt.wantLabels) || !reflect.DeepEqual(rk.Scores, tt.wantScores) {
				t.Errorf("got %v %v", rk.Labels, rk.Scores)
			}
			if gotPath != "/models/org/model" {
				t.Errorf("path = %s", gotPath)
			}
			if gotAuth != "Bearer hf_secret" {
				t.Errorf("auth = %q", gotAuth)
			}
			if gotReq.Inputs != "some text" || !reflect.DeepEqual(gotReq.Parameters.CandidateLabels, []string{"invoice", "letter"}) {
				t.Errorf("request = %+v", gotReq)
			}
		})
	}
}

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"plain", `{"labels":["a","b"],"scores":[0.3,0.7]}`, []string{"a", "b"}, false},
		{"fenced", "```json\n{\"labels\":[\"a\"],\"scores\":[1]}\n```", []string{"a"}, false},
		{"bare fence", "```\n{\"labels\":[\"b\"],\"scores\":[1]}\n```", []string{"b"}, false},
		{"prose", "I think it is an invoice", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rk, err := parseRanking(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err == nil && !reflect.DeepEqual(rk.Labels, tt.want) {
				t.Errorf("labels = %v", rk.Labels)
			}
		})
	}

	rk, err := parseRanking("   ")
	if err != nil || rk != nil {
		t.Errorf("empty reply: %v, %v", rk, err)
	}
}

type fakeLLM struct {
	reply        string
	err          error
	system, user string
}

func (f *fakeLLM) Generate(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestPromptScorer(t *testing.T) {
	llm := &fakeLLM{reply: `{"labels":["memo","contract"],"scores":[0.2,0.8]}`}
	rk, err := NewPromptScorer(llm).Score(context.Background(), "signed by both parties", []string{"memo", "contract"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if rk.Labels[1] != "contract" || rk.Scores[1] != 0.8 {
		t.Errorf("ranking = %+v", rk)
	}
	if !strings.Contains(llm.user, `["memo","contract"]`) || !strings.Contains(llm.user, "signed by both parties") {
		t.Errorf("prompt = %q", llm.user)
	}

	boom := errors.New("quota exceeded")
	if _, err := NewPromptScorer(&fakeLLM{err: boom}).Score(context.Background(), "x", []string{"a"}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

type fakeEmbedder struct {
	vecs map[string][]float32
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			return nil, errors.New("unknown text " + t)
		}
		out = append(out, v)
	}
	return out, nil
}

func TestEmbeddingScorer(t *testing.T) {
	emb := &fakeEmbedder{vecs: map[string][]float32{
		"quarterly revenue": {1, 0.1, 0},
		"finance":           {1, 0, 0},
		"sports":            {0, 1, 0},
		"cooking":           {0, 0, 1},
	}}
	rk, err := NewEmbeddingScorer(emb).Score(context.Background(), "quarterly revenue", []string{"finance", "sports", "cooking"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	var sum float64
	best := 0
	for i, s := range rk.Scores {
		sum += s
		if s > rk.Scores[best] {
			best = i
		}
	}
	if rk.Labels[best] != "finance" {
		t.Errorf("best = %s, scores %v", rk.Labels[best], rk.Scores)
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("scores sum to %v", sum)
	}

	if _, err := NewEmbeddingScorer(emb).Score(context.Background(), "unseen", []string{"finance"}); err == nil {
		t.Error("expected embedder error")
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical = %v", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal = %v", got)
	}
	if got := cosine([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched = %v", got)
	}
}

func TestGeminiClientsNeedKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewGeminiLLM(context.Background(), "", ""); err == nil {
		t.Error("NewGeminiLLM without a key succeeded")
	}
	if _, err := NewGeminiEmbedder(context.Background(), "", ""); err == nil {
		t.Error("NewGeminiEmbedder without a key succeeded")
	}
}
