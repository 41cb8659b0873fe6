package objectclient

import (
	"path/filepath"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{"s3://bucket/reports/out.json", Location{"bucket", "reports/out.json"}, false},
		{"s3://bucket/prefix/", Location{"bucket", "prefix/"}, false},
		{"s3://bucket", Location{"bucket", ""}, false},
		{"s3:///key", Location{}, true},
		{"/local/path.json", Location{}, true},
	}
	for _, tt := range tests {
		got, err := ParseURL(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseURL(%q) = %+v, %v", tt.in, got, err)
		}
	}
	if s := (Location{"b", "k/x"}).String(); s != "s3://b/k/x" {
		t.Errorf("String() = %s", s)
	}
}

func TestLocalPath(t *testing.T) {
	dir := filepath.FromSlash("/tmp/dl")
	tests := []struct {
		prefix, key string
		want        string
		ok          bool
	}{
		{"docs/", "docs/a.txt", filepath.Join(dir, "a.txt"), true},
		{"docs", "docs/sub/b.pdf", filepath.Join(dir, "sub", "b.pdf"), true},
		{"docs/a.txt", "docs/a.txt", filepath.Join(dir, "a.txt"), true},
		{"", "x/../../etc", "", false},
	}
	for _, tt := range tests {
		got, ok := LocalPath(dir, tt.prefix, tt.key)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LocalPath(%q, %q) = %q, %v", tt.prefix, tt.key, got, ok)
		}
	}
}

func TestInPrefix(t *testing.T) {
	tests := []struct {
		prefix, key string
		want        bool
	}{
		{"", "any/key", true},
		{"docs/", "docs/a.txt", true},
		{"docs/", "docs2/a.txt", false},
		{"docs", "docs/a.txt", true},
		{"docs", "docs2/a.txt", false},
		{"docs/a.pdf", "docs/a.pdf", true},
		{"docs/a.pdf", "docs/a.pdf.bak", false},
	}
	for _, tt := range tests {
		if got := InPrefix(tt.prefix, tt.key); got != tt.want {
			t.Errorf("InPrefix(%q, %q) = %v, want %v", tt.prefix, tt.key, got, tt.want)
		}
	}
}
