package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"
)

// EMLFormat reads RFC 822 messages.
type EMLFormat struct{}

func (f *EMLFormat) Name() string         { return "Email" }
func (f *EMLFormat) Extensions() []string { return []string{".eml"} }

// Extract returns, for multipart messages, every text/plain part concatenated
// in depth-first order, and the decoded body otherwise.
func (f *EMLFormat) Extract(_ context.Context, path string, _ Options) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	root, err := enmime.ReadParts(fh)
	if err != nil {
		return "", fmt.Errorf("failed to parse EML: %w", err)
	}

	if !strings.HasPrefix(root.ContentType, "multipart/") {
		return string(root.Content), nil
	}

	var b strings.Builder
	for _, p := range root.DepthMatchAll(func(p *enmime.Part) bool {
		return p.ContentType == "text/plain"
	}) {
		b.Write(p.Content)
	}
	return b.String(), nil
}
