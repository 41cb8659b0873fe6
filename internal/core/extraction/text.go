package extraction

import (
	"bytes"
	"context"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainTextFormat decodes files as UTF-8, dropping invalid byte sequences.
type PlainTextFormat struct {
	name string
}

func (f *PlainTextFormat) Name() string {
	if f.name != "" {
		return f.name
	}
	return "Text"
}

func (f *PlainTextFormat) Extensions() []string {
	if f.name != "" {
		return nil
	}
	return []string{".txt"}
}

func (f *PlainTextFormat) Extract(_ context.Context, path string, _ Options) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeText(data), nil
}

func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), "")
}
