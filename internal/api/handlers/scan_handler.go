package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/markdave123-py/scandoc/internal/models"
	"github.com/markdave123-py/scandoc/internal/services"
)

// FileScanner scans a file on disk, reporting paths under display.
type FileScanner interface {
	ScanNamed(ctx context.Context, target, display string, ocr bool) ([]models.ScanResult, error)
}

type ScanHandler struct {
	scanner    FileScanner
	tempDir    string
	maxUpload  int64
	defaultOCR bool
}

func NewScanHandler(scanner FileScanner, tempDir string, maxUploadMB int64, defaultOCR bool) *ScanHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &ScanHandler{scanner: scanner, tempDir: tempDir, maxUpload: maxUploadMB << 20, defaultOCR: defaultOCR}
}

// Scan classifies an uploaded document, or every document inside an
// uploaded archive. Form fields: file (required), ocr (optional bool).
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ocr := h.defaultOCR
	if v := r.FormValue("ocr"); v != "" {
		if ocr, err = strconv.ParseBool(v); err != nil {
			http.Error(w, "ocr must be a boolean", http.StatusBadRequest)
			return
		}
	}

	// Removes any path components from the client supplied name.
	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		name = "upload"
	}

	dir := filepath.Join(h.workDir(), uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		http.Error(w, "cannot stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, name)
	if err := saveUpload(target, file); err != nil {
		slog.Error("saving upload", "file", name, "err", err)
		http.Error(w, "cannot stage upload", http.StatusInternalServerError)
		return
	}

	results, err := h.scanner.ScanNamed(r.Context(), target, name, ocr)
	if err != nil {
		slog.Error("scan request failed", "file", name, "err", err)
		http.Error(w, fmt.Sprintf("scan failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := services.WriteResults(w, results); err != nil {
		slog.Error("writing scan response", "err", err)
	}
}

func (h *ScanHandler) workDir() string {
	if h.tempDir != "" {
		return h.tempDir
	}
	return os.TempDir()
}

func saveUpload(target string, src io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
