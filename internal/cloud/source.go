// Package cloud opens file content for download. Entries point at plain
// HTTP(S) URLs or, for some deployments, at s3:// and az:// object URLs.
package cloud

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Object is an open download stream. Size is -1 when unknown.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Source opens a download URL as a stream.
type Source interface {
	Open(ctx context.Context, rawURL string) (*Object, error)
}

// ObjectURL is a parsed s3:// or az:// location.
type ObjectURL struct {
	Scheme    string
	Container string // bucket for s3
	Key       string
}

// ParseObjectURL splits scheme://container/key.
func ParseObjectURL(rawURL string) (ObjectURL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ObjectURL{}, fmt.Errorf("invalid object URL %q: %w", rawURL, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return ObjectURL{}, fmt.Errorf("object URL %q must be %s://container/key", rawURL, u.Scheme)
	}
	return ObjectURL{Scheme: strings.ToLower(u.Scheme), Container: u.Host, Key: key}, nil
}

func sizeOrUnknown(n *int64) int64 {
	if n == nil {
		return -1
	}
	return *n
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
