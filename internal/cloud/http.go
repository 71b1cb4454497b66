package cloud

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	fdhttp "github.com/filedash/filedash/internal/http"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/version"
)

// HTTPSource downloads plain URLs, retrying transient failures.
type HTTPSource struct {
	client *nethttp.Client
	retry  fdhttp.Config
	log    zerolog.Logger
}

// NewHTTPSource wraps client. maxRetries <= 0 uses the default.
func NewHTTPSource(client *nethttp.Client, maxRetries int) *HTTPSource {
	s := &HTTPSource{client: client, retry: fdhttp.DefaultConfig(), log: log.Logger}
	if maxRetries > 0 {
		s.retry.MaxRetries = maxRetries
	}
	s.retry.OnRetry = func(attempt int, err error, errType fdhttp.ErrorType) {
		s.log.Warn().Err(err).Int("attempt", attempt).Str("class", fdhttp.ErrorTypeName(errType)).Msg("retrying download")
	}
	return s
}

// SetLogger replaces the logger used for retry warnings.
func (s *HTTPSource) SetLogger(l *logging.Logger) {
	s.log = l.Component("download").Zerolog()
}

func (s *HTTPSource) Open(ctx context.Context, rawURL string) (*Object, error) {
	var obj *Object
	err := fdhttp.ExecuteWithRetry(ctx, s.retry, func() error {
		req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "filedash/"+version.Version)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return &fdhttp.StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
		}
		obj = &Object{Body: resp.Body, Size: resp.ContentLength, ContentType: resp.Header.Get("Content-Type")}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
