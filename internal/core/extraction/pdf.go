package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// minPDFText is the trimmed length below which a PDF is treated as scanned.
const minPDFText = 10

// PDFFormat extracts per-page text, falling back to OCR for scanned documents.
type PDFFormat struct {
	ocr ocrEngine
	log *slog.Logger
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

func (f *PDFFormat) Extract(ctx context.Context, path string, opts Options) (string, error) {
	text, err := f.pageText(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return text, err
		}
		f.logger().Warn("pdf text layer unreadable", "path", path, "err", err)
	}

	if !opts.OCR || utf8.RuneCountInString(strings.TrimSpace(text)) >= minPDFText {
		return text, nil
	}
	if !f.ocr.enabled() {
		f.logger().Debug("ocr requested but no engine configured", "path", path)
		return text, nil
	}

	ocrText, err := f.ocrPages(ctx, path)
	text += ocrText
	if err != nil {
		if ctx.Err() != nil {
			return text, err
		}
		f.logger().Warn("pdf ocr fallback failed", "path", path, "err", err)
	}
	return text, nil
}

func (f *PDFFormat) logger() *slog.Logger {
	if f.log != nil {
		return f.log
	}
	return slog.Default()
}

// pageText concatenates the text layer of every page in order. Pages that
// fail, including by panicking inside the parser, are logged and skipped.
func (f *PDFFormat) pageText(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		content, err := readPage(reader, i)
		if err != nil {
			f.logger().Warn("pdf page skipped", "path", path, "page", i, "err", err)
			continue
		}
		b.WriteString(content)
	}
	return b.String(), nil
}

func readPage(r *pdf.Reader, n int) (content string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic reading page: %v", rec)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// ocrPages rasterises every page and appends its recognised text in page
// order. On failure the text recognised so far is returned with the error.
func (f *PDFFormat) ocrPages(ctx context.Context, path string) (string, error) {
	pages, err := f.ocr.ras.Rasterize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}
	if len(pages) == 0 {
		return "", errors.New("rasterize: no pages")
	}

	var b strings.Builder
	for i, img := range pages {
		t, err := f.ocr.rec.Recognize(ctx, img, f.ocr.langs...)
		if err != nil {
			return b.String(), fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		b.WriteString(t)
	}
	return b.String(), nil
}
