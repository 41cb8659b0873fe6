package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/markdave123-py/scandoc/internal/api/middlewares"
	"github.com/markdave123-py/scandoc/internal/config"
)

func testConfig(t *testing.T, hfURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Categories = []string{"invoice", "letter"}
	cfg.HFEndpoint = hfURL
	cfg.Scan.TempDir = t.TempDir()
	return cfg
}

func fakeHF(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"labels":["letter","invoice"],"scores":[0.7,0.3]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewAppBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		labels  []string
		wantErr bool
	}{
		{"huggingface", config.BackendHuggingFace, []string{"a"}, false},
		{"unknown backend", "bert-local", []string{"a"}, true},
		{"unknown backend without labels", "bert-local", nil, false},
		{"gemini without key", config.BackendGemini, []string{"a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			cfg := config.Default()
			cfg.Backend = tt.backend
			cfg.Categories = tt.labels
			a, err := NewApp(context.Background(), cfg, Options{Logger: quietLog()})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if a != nil {
				a.Close()
			}
		})
	}
}

func TestServerRoutes(t *testing.T) {
	cfg := testConfig(t, fakeHF(t).URL)
	cfg.JWTSecret = "test-secret"
	a, err := NewApp(context.Background(), cfg, Options{Logger: quietLog()})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	srv := httptest.NewServer(NewServer(a, "").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/classify", "application/json", strings.NewReader(`{"text":"dear sir"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated classify = %d", resp.StatusCode)
	}

	token, err := middleware.IssueToken([]byte(cfg.JWTSecret), "tester", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/classify", strings.NewReader(`{"text":"dear sir"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Label != "letter" || out.Score != 0.7 {
		t.Errorf("classify = %+v", out)
	}
}

func TestServerStartStops(t *testing.T) {
	cfg := testConfig(t, fakeHF(t).URL)
	a, err := NewApp(context.Background(), cfg, Options{Logger: quietLog()})
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(a, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

type countingRecognizer struct{ calls int }

func (c *countingRecognizer) Recognize(context.Context, image.Image, ...string) (string, error) {
	c.calls++
	return "dear sir", nil
}

func (c *countingRecognizer) RecognizeFile(context.Context, string, ...string) (string, error) {
	c.calls++
	return "dear sir", nil
}

func postUpload(t *testing.T, url, name string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("\x89PNG not really"))
	mw.Close()

	resp, err := http.Post(url+"/api/scan", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestServerUploadOCRDefault(t *testing.T) {
	tests := []struct {
		name      string
		ocr       bool
		fields    map[string]string
		wantCalls int
		wantLabel string
	}{
		{"serve with ocr", true, nil, 1, "letter"},
		{"serve without ocr", false, nil, 0, "No text extracted"},
		{"form field turns ocr off", true, map[string]string{"ocr": "false"}, 0, "No text extracted"},
		{"form field turns ocr on", false, map[string]string{"ocr": "true"}, 1, "letter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, fakeHF(t).URL)
			rec := &countingRecognizer{}
			a, err := NewApp(context.Background(), cfg, Options{Recognizer: rec, OCR: tt.ocr, Logger: quietLog()})
			if err != nil {
				t.Fatal(err)
			}
			defer a.Close()
			srv := httptest.NewServer(NewServer(a, "").Handler())
			defer srv.Close()

			resp := postUpload(t, srv.URL, "scan.png", tt.fields)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var out []struct {
				FilePath string  `json:"file_path"`
				Label    *string `json:"label"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if rec.calls != tt.wantCalls {
				t.Errorf("recognizer calls = %d, want %d", rec.calls, tt.wantCalls)
			}
			if len(out) != 1 || out[0].FilePath != "scan.png" || out[0].Label == nil || *out[0].Label != tt.wantLabel {
				t.Errorf("results = %+v", out)
			}
		})
	}
}

func TestNewAppOCRNeedsRecognizer(t *testing.T) {
	cfg := testConfig(t, fakeHF(t).URL)
	a, err := NewApp(context.Background(), cfg, Options{OCR: true, Logger: quietLog()})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.OCR {
		t.Error("OCR enabled without a recognizer")
	}
}
