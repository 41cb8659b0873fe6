// Package archive unpacks zip, rar and 7z containers so their members can be
// scanned like ordinary files.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

var (
	// ErrUnsupported is returned for paths without a known archive extension.
	ErrUnsupported = errors.New("archive: unsupported extension")
	// ErrFormatMismatch is returned when the content does not match the extension.
	ErrFormatMismatch = errors.New("archive: content does not match extension")
)

type unpackFunc func(ctx context.Context, h *Handler, path, dest string) error

type kind struct {
	magic  types.Type
	unpack unpackFunc
}

var kinds = map[string]kind{
	".zip": {magic: matchers.TypeZip, unpack: unzip},
	".rar": {magic: matchers.TypeRar, unpack: unrar},
	".7z":  {magic: matchers.Type7z, unpack: un7z},
}

// Extensions lists the archive extensions recognised by IsArchive.
func Extensions() []string { return []string{".zip", ".rar", ".7z"} }

// IsArchive reports whether path has an archive extension. Content is not inspected.
func IsArchive(path string) bool {
	_, ok := kinds[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extraction is an unpacked archive on disk. Call Cleanup once its contents
// are no longer needed.
type Extraction struct {
	Dir   string
	owned bool
}

// Cleanup removes Dir when the handler created it. Caller supplied
// destinations are left in place.
func (e *Extraction) Cleanup() error {
	if e == nil || !e.owned {
		return nil
	}
	return os.RemoveAll(e.Dir)
}

// Handler unpacks archives into temporary or caller supplied directories.
type Handler struct {
	// TempDir is the parent for new extraction directories; empty uses os.TempDir.
	TempDir string
	Log     *slog.Logger
}

func NewHandler(tempDir string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{TempDir: tempDir, Log: log}
}

// Extract unpacks path into dest, or into a new temporary directory when
// dest is empty. On failure nothing created by Extract is left behind.
func (h *Handler) Extract(ctx context.Context, path, dest string) (*Extraction, error) {
	k, ok := kinds[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err := checkMagic(path, k.magic); err != nil {
		return nil, err
	}

	ex := &Extraction{Dir: dest}
	if dest == "" {
		dir, err := os.MkdirTemp(h.TempDir, "scandoc-*")
		if err != nil {
			return nil, fmt.Errorf("create extraction dir: %w", err)
		}
		ex = &Extraction{Dir: dir, owned: true}
	} else if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	if err := k.unpack(ctx, h, path, ex.Dir); err != nil {
		_ = ex.Cleanup()
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return ex, nil
}

func checkMagic(path string, want types.Type) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read header: %w", err)
	}
	if !filetype.IsType(head[:n], want) {
		return fmt.Errorf("%w: %s is not %s", ErrFormatMismatch, path, want.Extension)
	}
	return nil
}

// entryPath maps an archive member name to a path below dest. Absolute names
// and names climbing out of dest are rejected.
func entryPath(dest, name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", false
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(dest, clean), true
}

// writeEntry copies one member to disk, creating parent directories.
func writeEntry(ctx context.Context, target string, r io.Reader, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode&0o600 == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (h *Handler) skipUnsafe(archive, name string) {
	h.Log.Warn("archive entry outside destination skipped", "archive", archive, "entry", name)
}
