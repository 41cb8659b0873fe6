package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/markdave123-py/scandoc/internal/core"
)

// Pdftoppm rasterises PDF pages with poppler's pdftoppm.
type Pdftoppm struct {
	// Path to the pdftoppm binary; "pdftoppm" resolves through $PATH.
	Path string
	DPI  int
	// TempDir is the parent for page images; empty uses os.TempDir.
	TempDir string
}

var _ core.Rasterizer = (*Pdftoppm)(nil)

func NewPdftoppm(path string, dpi int) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 200
	}
	return &Pdftoppm{Path: path, DPI: dpi}
}

// Rasterize renders every page of pdfPath and returns the images in page order.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath string) ([]image.Image, error) {
	dir, err := os.MkdirTemp(p.TempDir, "scandoc-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, p.Path, "-png", "-r", strconv.Itoa(p.DPI), pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sortPages(files)

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, _, err := LoadImage(f)
		if err != nil {
			return pages, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// sortPages orders pdftoppm outputs numerically. Page numbers are zero padded
// to the width of the page count, which differs between documents.
func sortPages(files []string) {
	num := func(f string) int {
		base := strings.TrimSuffix(filepath.Base(f), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndexByte(base, '-')+1:])
		return n
	}
	sort.Slice(files, func(i, j int) bool { return num(files[i]) < num(files[j]) })
}
