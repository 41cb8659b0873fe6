package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	objectclient "github.com/markdave123-py/scandoc/internal/core/object-client"
	"github.com/markdave123-py/scandoc/internal/models"
)

func TestWriteResults(t *testing.T) {
	var empty bytes.Buffer
	if err := WriteResults(&empty, nil); err != nil {
		t.Fatal(err)
	}
	if empty.String() != "[]\n" {
		t.Errorf("empty = %q", empty.String())
	}

	var buf bytes.Buffer
	results := []models.ScanResult{
		models.NewScanResult("docs/Hợp đồng.txt", "Hợp đồng <mua bán>", 0.75),
		{FilePath: "docs/x.txt", Label: nil, Score: 0},
	}
	if err := WriteResults(&buf, results); err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "file_path": "docs/Hợp đồng.txt",
    "label": "Hợp đồng <mua bán>",
    "score": 0.75
  },
  {
    "file_path": "docs/x.txt",
    "label": null,
    "score": 0
  }
]
`
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

type memStorage struct {
	uploads map[string]string
	objects map[string]string
	err     error
}

func (m *memStorage) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, _ := io.ReadAll(data)
	if m.uploads == nil {
		m.uploads = map[string]string{}
	}
	m.uploads[bucket+"/"+key] = string(b)
	return "https://" + bucket + "/" + key, nil
}

func (m *memStorage) GetObjectReader(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.objects[key])), nil
}

func (m *memStorage) DownloadPrefix(_ context.Context, _, prefix, dir string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for key, body := range m.objects {
		if !objectclient.InPrefix(prefix, key) {
			continue
		}
		p, ok := objectclient.LocalPath(dir, prefix, key)
		if !ok {
			continue
		}
		os.MkdirAll(filepath.Dir(p), 0o755)
		os.WriteFile(p, []byte(body), 0o644)
		out = append(out, p)
	}
	return out, nil
}

func TestReportServiceSave(t *testing.T) {
	results := []models.ScanResult{models.NewScanResult("a.txt", "x", 1)}

	t.Run("local", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "nested", "out.json")
		got, err := NewReportService(nil, "").Save(context.Background(), dest, results)
		if err != nil || got != dest {
			t.Fatalf("Save = %q, %v", got, err)
		}
		data, _ := os.ReadFile(dest)
		if !strings.Contains(string(data), `"file_path": "a.txt"`) {
			t.Errorf("file = %s", data)
		}
	})

	t.Run("s3 key", func(t *testing.T) {
		st := &memStorage{}
		got, err := NewReportService(st, "").Save(context.Background(), "s3://reports/run/out.json", results)
		if err != nil {
			t.Fatal(err)
		}
		if got != "https://reports/run/out.json" || !strings.Contains(st.uploads["reports/run/out.json"], `"label": "x"`) {
			t.Errorf("url %s uploads %v", got, st.uploads)
		}
	})

	t.Run("s3 folder", func(t *testing.T) {
		st := &memStorage{}
		if _, err := NewReportService(st, "").Save(context.Background(), "s3://reports/run/", results); err != nil {
			t.Fatal(err)
		}
		for k := range st.uploads {
			if !strings.HasPrefix(k, "reports/run/results-") || !strings.HasSuffix(k, ".json") {
				t.Errorf("key = %s", k)
			}
		}
	})

	t.Run("s3 without storage", func(t *testing.T) {
		if _, err := NewReportService(nil, "").Save(context.Background(), "s3://b/k.json", results); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		boom := errors.New("access denied")
		if _, err := NewReportService(&memStorage{err: boom}, "").Save(context.Background(), "s3://b/k.json", results); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestReportServiceStage(t *testing.T) {
	rs := NewReportService(&memStorage{objects: map[string]string{
		"inbox/a.txt":     "alpha",
		"inbox/sub/b.txt": "beta",
		"other/c.txt":     "gamma",
	}}, t.TempDir())

	dir, cleanup, err := rs.Stage(context.Background(), "/some/local/dir")
	if err != nil || dir != "/some/local/dir" {
		t.Fatalf("local: %s, %v", dir, err)
	}
	cleanup()

	dir, cleanup, err = rs.Stage(context.Background(), "s3://bucket/inbox/")
	if err != nil {
		t.Fatal(err)
	}
	if data, err := os.ReadFile(filepath.Join(dir, "sub", "b.txt")); err != nil || string(data) != "beta" {
		t.Errorf("staged b.txt = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c.txt")); err == nil {
		t.Error("object outside prefix was staged")
	}
	cleanup()
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging dir not removed: %v", err)
	}

	if _, _, err := rs.Stage(context.Background(), "s3://bucket/empty/"); err == nil {
		t.Error("expected error for empty prefix")
	}
}

func TestReportServiceStageObjectAndBarePrefix(t *testing.T) {
	rs := NewReportService(&memStorage{objects: map[string]string{
		"inbox/a.txt":     "alpha",
		"inbox/sub/b.txt": "beta",
		"inbox2/x.txt":    "sibling",
	}}, t.TempDir())

	file, cleanup, err := rs.Stage(context.Background(), "s3://bucket/inbox/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(file) != "a.txt" {
		t.Errorf("single object staged as %s", file)
	}
	if fi, err := os.Stat(file); err != nil || fi.IsDir() {
		t.Fatalf("staged object is not a file: %v", err)
	}
	cleanup()
	if _, err := os.Stat(filepath.Dir(file)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging dir not removed: %v", err)
	}

	dir, cleanup, err := rs.Stage(context.Background(), "s3://bucket/inbox")
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if data, err := os.ReadFile(filepath.Join(dir, "sub", "b.txt")); err != nil || string(data) != "beta" {
		t.Errorf("staged b.txt = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "x.txt")); err == nil {
		t.Error("sibling prefix inbox2/ was staged")
	}
}
