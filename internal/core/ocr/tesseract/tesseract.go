// Package tesseract recognises text with the Tesseract engine through cgo.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/scandoc/internal/core"
	"github.com/markdave123-py/scandoc/internal/core/ocr"
)

// Recognizer runs one Tesseract client per call; clients are not goroutine safe.
type Recognizer struct {
	languages []string
}

var _ core.Recognizer = (*Recognizer)(nil)

// New returns a Recognizer using languages by default (ocr.DefaultLanguages when empty).
func New(languages []string) *Recognizer {
	return &Recognizer{languages: ocr.Languages(languages)}
}

func (r *Recognizer) Recognize(ctx context.Context, img image.Image, langs ...string) (string, error) {
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return r.recognize(ctx, data, langs)
}

func (r *Recognizer) RecognizeFile(ctx context.Context, path string, langs ...string) (string, error) {
	img, _, err := ocr.LoadImage(path)
	if err != nil {
		return "", err
	}
	return r.Recognize(ctx, img, langs...)
}

func (r *Recognizer) recognize(ctx context.Context, png []byte, langs []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(langs) == 0 {
		langs = r.languages
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(langs...); err != nil {
		return "", fmt.Errorf("tesseract languages %v: %w", langs, err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}
