package cloud

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/logging"
)

// Router dispatches on URL scheme. The S3 and Azure sources are created
// lazily from the storage settings.
type Router struct {
	httpSource Source

	mu      sync.Mutex
	s3      Source
	azure   Source
	storage config.StorageConfig
	client  *nethttp.Client
}

// NewRouter builds a Router around an already configured HTTP client.
func NewRouter(cfg *config.Config, client *nethttp.Client) *Router {
	return &Router{
		httpSource: NewHTTPSource(client, cfg.MaxRetries),
		storage:    cfg.Storage,
		client:     client,
	}
}

// SetLogger sends the HTTP source's retry logging to l.
func (r *Router) SetLogger(l *logging.Logger) {
	if hs, ok := r.httpSource.(*HTTPSource); ok {
		hs.SetLogger(l)
	}
}

// NewRouterWith is used by tests to inject sources.
func NewRouterWith(httpSource, s3Source, azureSource Source) *Router {
	return &Router{httpSource: httpSource, s3: s3Source, azure: azureSource}
}

func (r *Router) Open(ctx context.Context, rawURL string) (*Object, error) {
	src, err := r.sourceFor(rawURL)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx, rawURL)
}

func (r *Router) sourceFor(rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL %q: %w", rawURL, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return r.httpSource, nil
	case "s3":
		if r.s3 == nil {
			r.s3 = NewS3Source(S3Options{
				Region:    r.storage.S3Region,
				Endpoint:  r.storage.S3Endpoint,
				AccessKey: r.storage.S3AccessKey,
				SecretKey: r.storage.S3SecretKey,
			}, r.client)
		}
		return r.s3, nil
	case "az", "azure":
		if r.azure == nil {
			src, err := NewAzureSource(r.storage.AzureAccount, r.storage.AzureSASToken, r.client)
			if err != nil {
				return nil, err
			}
			r.azure = src
		}
		return r.azure, nil
	case "":
		return nil, fmt.Errorf("download URL %q has no scheme", rawURL)
	default:
		return nil, fmt.Errorf("unsupported download URL scheme %q", u.Scheme)
	}
}
