package archive

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

func unzip(ctx context.Context, h *Handler, path, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, ok := entryPath(dest, f.Name)
		if !ok {
			h.skipUnsafe(path, f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(ctx, target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func unrar(ctx context.Context, h *Handler, path, dest string) error {
	rr, err := rardecode.OpenReader(path)
	if err != nil {
		return err
	}
	defer rr.Close()

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, ok := entryPath(dest, hdr.Name)
		if !ok {
			h.skipUnsafe(path, hdr.Name)
			continue
		}
		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := writeEntry(ctx, target, rr, hdr.Mode()); err != nil {
			return err
		}
	}
}

func un7z(ctx context.Context, h *Handler, path, dest string) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target, ok := entryPath(dest, f.Name)
		if !ok {
			h.skipUnsafe(path, f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(ctx, target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
