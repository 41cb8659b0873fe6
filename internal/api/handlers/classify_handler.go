package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markdave123-py/scandoc/internal/core"
	"github.com/markdave123-py/scandoc/internal/models"
)

type ClassifyHandler struct {
	classifier core.DocumentClassifier
	labels     []string
}

func NewClassifyHandler(cls core.DocumentClassifier, labels []string) *ClassifyHandler {
	return &ClassifyHandler{classifier: cls, labels: labels}
}

type ClassifyRequest struct {
	Text string `json:"text"`
}

type ClassifyResponse struct {
	Label *string `json:"label"`
	Score float64 `json:"score"`
}

// Classify labels raw text posted as {"text": "..."}.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		noText := models.LabelNoText
		writeJSON(w, http.StatusOK, ClassifyResponse{Label: &noText})
		return
	}

	pred, err := h.classifier.Classify(r.Context(), req.Text)
	if err != nil {
		slog.Error("classify request failed", "err", err)
		http.Error(w, "classification failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{Label: pred.Label, Score: pred.Score})
}

// Health reports liveness and the configured label count.
func (h *ClassifyHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "labels": len(h.labels)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
