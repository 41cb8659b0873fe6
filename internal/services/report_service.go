package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/scandoc/internal/core"
	objectclient "github.com/markdave123-py/scandoc/internal/core/object-client"
	"github.com/markdave123-py/scandoc/internal/models"
)

// WriteResults encodes results as an indented JSON array. Non-ASCII text and
// HTML characters are written literally; no results encode as [].
func WriteResults(w io.Writer, results []models.ScanResult) error {
	if results == nil {
		results = []models.ScanResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// ReportService moves scan inputs and reports between local disk and object storage.
type ReportService struct {
	storage core.ObjectClient
	tempDir string
}

// NewReportService accepts a nil storage client; s3:// locations then fail.
func NewReportService(storage core.ObjectClient, tempDir string) *ReportService {
	return &ReportService{storage: storage, tempDir: tempDir}
}

// Save writes results to dest, a local path or an s3:// URL, and returns
// where they ended up.
func (s *ReportService) Save(ctx context.Context, dest string, results []models.ScanResult) (string, error) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, results); err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}

	if !objectclient.IsS3URL(dest) {
		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("write results: %w", err)
		}
		return dest, nil
	}

	loc, err := objectclient.ParseURL(dest)
	if err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", fmt.Errorf("write %s: object storage not configured", dest)
	}
	key := reportKey(loc.Key)
	url, err := s.storage.UploadFile(ctx, loc.Bucket, key, &buf, "application/json")
	if err != nil {
		return "", err
	}
	return url, nil
}

// Stage makes src available on local disk. Local paths are returned as is;
// s3:// prefixes are downloaded into a temporary directory that cleanup removes.
// When src names a single object, the returned path is that file.
func (s *ReportService) Stage(ctx context.Context, src string) (local string, cleanup func(), err error) {
	noop := func() {}
	if !objectclient.IsS3URL(src) {
		return src, noop, nil
	}
	loc, err := objectclient.ParseURL(src)
	if err != nil {
		return "", noop, err
	}
	if s.storage == nil {
		return "", noop, fmt.Errorf("read %s: object storage not configured", src)
	}

	dir, err := os.MkdirTemp(s.tempDir, "scandoc-input-*")
	if err != nil {
		return "", noop, fmt.Errorf("create input dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	files, err := s.storage.DownloadPrefix(ctx, loc.Bucket, loc.Key, dir)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	if len(files) == 0 {
		cleanup()
		return "", noop, fmt.Errorf("no objects under %s", src)
	}
	if key := loc.Key; key != "" && !strings.HasSuffix(key, "/") && len(files) == 1 &&
		files[0] == filepath.Join(dir, path.Base(key)) {
		return files[0], cleanup, nil
	}
	return dir, cleanup, nil
}

// reportKey names the report object. A key ending in "/" (or none) is
// treated as a folder and gets a unique file name.
func reportKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasSuffix(key, "/") {
		return path.Join(key, "results-"+uuid.NewString()+".json")
	}
	return key
}
