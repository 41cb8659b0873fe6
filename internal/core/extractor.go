package core

import (
	"context"
	"image"
)

// TextExtractor produces the text content of a file on disk.
type TextExtractor interface {
	// Extract returns the text of path. Format-level failures come back as
	// empty text; only an unreadable target or a cancelled ctx is an error.
	Extract(ctx context.Context, path string, ocrEnabled bool) (string, error)
}

// Recognizer runs optical character recognition over images.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, langs ...string) (string, error)
	RecognizeFile(ctx context.Context, path string, langs ...string) (string, error)
}

// Rasterizer renders every page of a PDF to an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string) ([]image.Image, error)
}
