package objectclient

import (
	"errors"
	"strings"
)

var errNotS3 = errors.New("not an s3:// url")

// Location addresses an object, or a key prefix, in a bucket.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// IsS3URL reports whether s uses the s3:// scheme.
func IsS3URL(s string) bool { return strings.HasPrefix(s, "s3://") }

// ParseURL splits s3://bucket/key into its parts. The key may be empty.
func ParseURL(s string) (Location, error) {
	if !IsS3URL(s) {
		return Location{}, errNotS3
	}
	rest := strings.TrimPrefix(s, "s3://")
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, errors.New("s3 url has no bucket: " + s)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// InPrefix reports whether key lies under prefix. A prefix that does not end
// in "/" names either the object itself or a folder, so "docs" matches
// "docs" and "docs/a.txt" but not "docs2/a.txt".
func InPrefix(prefix, key string) bool {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(key, prefix)
	}
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
