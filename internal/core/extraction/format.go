// Package extraction turns files of heterogeneous formats into plain text.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/markdave123-py/scandoc/internal/core"
)

// Format defines a reader for one family of file formats.
type Format interface {
	Name() string
	Extensions() []string
	Extract(ctx context.Context, path string, opts Options) (string, error)
}

// Options carries per-file extraction settings.
type Options struct {
	OCR bool
}

// Extractor dispatches files to the registered Format for their lower-cased
// extension. Files with no registered format are decoded as plain text.
type Extractor struct {
	formats  []Format
	byExt    map[string]Format
	fallback Format
	log      *slog.Logger
}

var _ core.TextExtractor = (*Extractor)(nil)

// Option configures an Extractor.
type Option func(*settings)

type settings struct {
	recognizer core.Recognizer
	rasterizer core.Rasterizer
	languages  []string
	logger     *slog.Logger
}

// WithOCR enables the OCR paths (PDF fallback and image files).
func WithOCR(rec core.Recognizer, ras core.Rasterizer, languages []string) Option {
	return func(s *settings) {
		s.recognizer = rec
		s.rasterizer = ras
		s.languages = languages
	}
}

// WithLogger sets the logger used for recovered extraction failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New returns an Extractor with every built-in format registered.
func New(opts ...Option) *Extractor {
	s := settings{logger: slog.Default()}
	for _, o := range opts {
		o(&s)
	}

	ocr := ocrEngine{rec: s.recognizer, ras: s.rasterizer, langs: s.languages}
	e := &Extractor{
		byExt:    map[string]Format{},
		fallback: &PlainTextFormat{name: "Raw"},
		log:      s.logger,
	}
	e.Register(&PlainTextFormat{})
	e.Register(&DOCXFormat{})
	e.Register(&PDFFormat{ocr: ocr, log: s.logger})
	e.Register(&EMLFormat{})
	e.Register(&HTMLFormat{})
	e.Register(&EPUBFormat{})
	e.Register(&DocconvFormat{})
	e.Register(&ImageFormat{ocr: ocr})
	return e
}

// Register adds a format, replacing any earlier owner of its extensions.
func (e *Extractor) Register(f Format) {
	e.formats = append(e.formats, f)
	for _, ext := range f.Extensions() {
		e.byExt[strings.ToLower(ext)] = f
	}
}

// SupportedFormats returns registered format names with their extensions.
func (e *Extractor) SupportedFormats() []string {
	var out []string
	for _, f := range e.formats {
		exts := append([]string(nil), f.Extensions()...)
		sort.Strings(exts)
		out = append(out, f.Name()+" ("+strings.Join(exts, ", ")+")")
	}
	return out
}

// FormatFor returns the format handling path.
func (e *Extractor) FormatFor(path string) Format {
	if f, ok := e.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return e.fallback
}

// Extract returns the text of path.
//
// Format failures are logged and degrade to whatever text was recovered
// (often none). Only a missing or unreadable file and context cancellation
// are reported as errors.
func (e *Extractor) Extract(ctx context.Context, path string, ocrEnabled bool) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	f := e.FormatFor(path)
	text, err := f.Extract(ctx, path, Options{OCR: ocrEnabled})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return text, ctxErr
		}
		e.log.Warn("text extraction failed", "path", path, "format", f.Name(), "err", err)
	}
	return text, nil
}
