package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Location is a parsed seed location: either a local file or an object in a bucket.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

// Remote reports whether the location points into object storage.
func (l Location) Remote() bool {
	return l.Bucket != ""
}

// Format returns the document format implied by the file extension.
func (l Location) Format() string {
	name := l.Path
	if l.Remote() {
		name = l.Key
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case "yml":
		return "yaml"
	case "":
		return "yaml"
	default:
		return ext
	}
}

func (l Location) String() string {
	if l.Remote() {
		return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
	}
	return l.Path
}

// ParseLocation accepts "s3://bucket/key" or a filesystem path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("seed location is required")
	}
	if !strings.HasPrefix(raw, "s3://") {
		return Location{Path: filepath.Clean(raw)}, nil
	}

	rest := strings.TrimPrefix(raw, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return Location{}, fmt.Errorf("invalid s3 location")
	}
	if len(parts) == 1 || strings.Trim(parts[1], "/") == "" {
		return Location{}, fmt.Errorf("s3 key missing")
	}
	return Location{Bucket: parts[0], Key: strings.TrimPrefix(parts[1], "/")}, nil
}

// ObjectFetcher reads whole objects from remote storage.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Service opens seed documents.
type Service interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)
}

type service struct {
	remote ObjectFetcher
}

// NewService returns a Service. remote may be nil when only local files are used.
func NewService(remote ObjectFetcher) Service {
	return &service{remote: remote}
}

func (s *service) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if !loc.Remote() {
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		return f, nil
	}
	if s.remote == nil {
		return nil, fmt.Errorf("object storage not configured for %s", loc)
	}
	data, err := s.remote.Fetch(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
