package extraction

import (
	"context"
	"errors"

	"github.com/markdave123-py/scandoc/internal/core"
)

var errNoOCR = errors.New("ocr engine not configured")

type ocrEngine struct {
	rec   core.Recognizer
	ras   core.Rasterizer
	langs []string
}

func (o ocrEngine) enabled() bool { return o.rec != nil && o.ras != nil }

// ImageFormat recognises text in raster images when OCR is enabled.
type ImageFormat struct {
	ocr ocrEngine
}

func (f *ImageFormat) Name() string { return "Image" }
func (f *ImageFormat) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

func (f *ImageFormat) Extract(ctx context.Context, path string, opts Options) (string, error) {
	if !opts.OCR {
		return "", nil
	}
	if f.ocr.rec == nil {
		return "", errNoOCR
	}
	return f.ocr.rec.RecognizeFile(ctx, path, f.ocr.langs...)
}
