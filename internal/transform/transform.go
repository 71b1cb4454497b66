// Package transform builds image delivery URLs of the form
// {base}/tr:{params}/{path}.
package transform

import "strings"

// Transformation presets.
const (
	Thumbnail = "h-48,w-48,fo-auto,q-80,dpr-2"
	Preview   = "q-90,w-1600,h-1200,fo-auto"
	Original  = "q-100,orig-true"
)

// Builder produces transformation URLs against one delivery endpoint.
type Builder struct {
	base string
}

// NewBuilder returns a Builder for base (e.g. https://ik.example.com/acme).
func NewBuilder(base string) *Builder {
	return &Builder{base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// URL joins base, the tr: segment and the storage path. Leading and
// duplicate slashes in path are collapsed.
func (b *Builder) URL(params, path string) string {
	var sb strings.Builder
	sb.WriteString(b.base)
	sb.WriteString("/tr:")
	sb.WriteString(strings.TrimSpace(params))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		sb.WriteByte('/')
		sb.WriteString(seg)
	}
	return sb.String()
}

func (b *Builder) ThumbnailURL(path string) string { return b.URL(Thumbnail, path) }
func (b *Builder) PreviewURL(path string) string   { return b.URL(Preview, path) }
func (b *Builder) OriginalURL(path string) string  { return b.URL(Original, path) }

// Configured reports whether a delivery endpoint is set.
func (b *Builder) Configured() bool {
	return b != nil && b.base != ""
}
