package extraction

import (
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv"
)

// DocconvFormat covers legacy and open office formats through docconv.
// docconv shells out to external converters (antiword, unrtf, ...), which
// must be installed for the matching formats.
type DocconvFormat struct {
	UseReadability bool
}

func (f *DocconvFormat) Name() string { return "Office" }
func (f *DocconvFormat) Extensions() []string {
	return []string{".doc", ".odt", ".rtf", ".pages"}
}

func (f *DocconvFormat) Extract(_ context.Context, path string, _ Options) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	res, err := docconv.Convert(fh, docconv.MimeTypeByExtension(path), f.UseReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	return res.Body, nil
}
