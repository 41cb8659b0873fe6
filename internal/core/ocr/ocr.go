// Package ocr loads raster images and renders PDF pages for text recognition.
// The recogniser itself lives in the tesseract subpackage.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// decoders registered for image.Decode
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultLanguages are the Tesseract language packs used when none are configured.
var DefaultLanguages = []string{"eng", "rus", "vie"}

// Languages returns langs, or DefaultLanguages when langs is empty.
func Languages(langs []string) []string {
	if len(langs) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return langs
}

// LoadImage decodes the image at path in any registered format.
func LoadImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, format, nil
}

// EncodePNG re-encodes img losslessly for the recogniser.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
