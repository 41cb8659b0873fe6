package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/scandoc/internal/core"
	"github.com/markdave123-py/scandoc/internal/core/archive"
	"github.com/markdave123-py/scandoc/internal/models"
)

// Outcome is how the extract-then-classify step ended for one file.
type Outcome int

const (
	Classified Outcome = iota
	Empty
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Classified:
		return "classified"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// FileResult is the typed result of processing one file.
type FileResult struct {
	Outcome    Outcome
	Prediction core.Prediction
	Err        error
}

// Record folds r into the report row for path.
func (r FileResult) Record(path string) models.ScanResult {
	switch r.Outcome {
	case Classified:
		return models.ScanResult{FilePath: path, Label: r.Prediction.Label, Score: r.Prediction.Score}
	case Empty:
		return models.NewScanResult(path, models.LabelNoText, 0)
	}
	return models.NewScanResult(path, models.LabelError, 0)
}

// ArchiveExtractor unpacks archives for the scanner.
type ArchiveExtractor interface {
	Extract(ctx context.Context, path, dest string) (*archive.Extraction, error)
}

// ScanOptions tunes a Scanner.
type ScanOptions struct {
	// FileTimeout bounds extraction plus classification of a single file.
	// Zero means no limit.
	FileTimeout time.Duration
	// KeepExtracted leaves unpacked archives on disk and reports their real paths.
	KeepExtracted bool
	Logger        *slog.Logger
}

// Scanner walks a tree, unpacks archives and classifies every other file.
// A Scanner holds no per-scan state; one scan runs at a time on the caller's goroutine.
type Scanner struct {
	extractor  core.TextExtractor
	classifier core.DocumentClassifier
	archives   ArchiveExtractor
	opts       ScanOptions
	log        *slog.Logger
}

func NewScanner(ext core.TextExtractor, cls core.DocumentClassifier, arch ArchiveExtractor, opts ScanOptions) *Scanner {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{extractor: ext, classifier: cls, archives: arch, opts: opts, log: log}
}

// Scan processes target, a directory or a single file, and returns one
// result per non-archive file found, archive members spliced in place of
// their archive. Only failures to read target itself are returned as errors;
// if ctx is cancelled the results gathered so far are returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, target string, ocr bool) ([]models.ScanResult, error) {
	return s.ScanNamed(ctx, target, target, ocr)
}

// ScanNamed is Scan with result paths reported under display instead of target.
func (s *Scanner) ScanNamed(ctx context.Context, target, display string, ocr bool) ([]models.ScanResult, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", target, err)
	}

	w := &walker{Scanner: s, ocr: ocr, results: []models.ScanResult{}}
	switch {
	case info.IsDir():
		entries, err := os.ReadDir(target)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", target, err)
		}
		err = w.dir(ctx, target, display, entries)
		return w.results, err
	case archive.IsArchive(target):
		err = w.archive(ctx, target, display)
		return w.results, err
	default:
		err = w.file(ctx, target, display)
		return w.results, err
	}
}

// ProcessFile extracts and classifies one file. Panics and errors are
// captured in the returned FileResult.
func (s *Scanner) ProcessFile(ctx context.Context, path string, ocr bool) (res FileResult) {
	if s.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FileTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res = FileResult{Outcome: Failed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	text, err := s.extractor.Extract(ctx, path, ocr)
	if err != nil {
		return FileResult{Outcome: Failed, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return FileResult{Outcome: Empty}
	}

	pred, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return FileResult{Outcome: Failed, Err: err}
	}
	return FileResult{Outcome: Classified, Prediction: pred}
}

type walker struct {
	*Scanner
	ocr     bool
	results []models.ScanResult
}

// dir visits the files of a directory in name order, then its
// subdirectories. Unreadable subdirectories are logged and skipped.
func (w *walker) dir(ctx context.Context, path, display string, entries []fs.DirEntry) error {
	var subdirs []fs.DirEntry
	for _, e := range entries {
		full := filepath.Join(path, e.Name())
		shown := filepath.Join(display, e.Name())

		isDir, err := w.isDir(full, e)
		if err != nil {
			w.log.Warn("skipping entry", "path", full, "err", err)
			continue
		}
		if isDir {
			subdirs = append(subdirs, e)
			continue
		}

		if archive.IsArchive(full) {
			err = w.archive(ctx, full, shown)
		} else {
			err = w.file(ctx, full, shown)
		}
		if err != nil {
			return err
		}
	}

	for _, e := range subdirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		full := filepath.Join(path, e.Name())
		children, err := os.ReadDir(full)
		if err != nil {
			w.log.Warn("skipping directory", "path", full, "err", err)
			continue
		}
		if err := w.dir(ctx, full, filepath.Join(display, e.Name()), children); err != nil {
			return err
		}
	}
	return nil
}

// isDir resolves symlinks to files. Links to directories are not followed.
func (w *walker) isDir(full string, e fs.DirEntry) (bool, error) {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir(), nil
	}
	info, err := os.Stat(full)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, errSymlinkDir
	}
	return false, nil
}

var errSymlinkDir = errors.New("symlinked directory not followed")

func (w *walker) file(ctx context.Context, path, display string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := w.ProcessFile(ctx, path, w.ocr)
	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Outcome == Failed {
		w.log.Error("file processing failed", "path", path, "err", res.Err)
	} else {
		w.log.Debug("file processed", "path", path, "outcome", res.Outcome)
	}
	w.results = append(w.results, res.Record(display))
	return nil
}

// archive unpacks path into a scoped temporary directory and scans its
// contents. An archive that cannot be unpacked contributes no results.
func (w *walker) archive(ctx context.Context, path, display string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ex, err := w.archives.Extract(ctx, path, "")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		w.log.Warn("archive extraction failed", "path", path, "err", err)
		return nil
	}

	if w.opts.KeepExtracted {
		display = ex.Dir
		w.log.Info("archive extracted", "path", path, "dir", ex.Dir)
	} else {
		defer func() {
			if err := ex.Cleanup(); err != nil {
				w.log.Warn("removing extraction dir", "dir", ex.Dir, "err", err)
			}
		}()
	}

	entries, err := os.ReadDir(ex.Dir)
	if err != nil {
		w.log.Warn("reading extracted archive", "path", path, "err", err)
		return nil
	}
	return w.dir(ctx, ex.Dir, display, entries)
}
