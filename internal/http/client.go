// Package http builds the HTTP clients used by the gateway and the content
// sources: proxy modes, NO_PROXY bypass, HTTP/2 and retry classification.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/constants"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings.
//
// Proxy modes:
//   - "no-proxy" (or empty): direct connections
//   - "system": HTTP_PROXY / HTTPS_PROXY / NO_PROXY from the environment
//   - "basic": proxy_host:proxy_port with optional user/password
//   - "ntlm": as basic, with the transport wrapped in an NTLM negotiator
//
// HTTP/2 is negotiated only on direct connections; set DISABLE_HTTP2=true to force HTTP/1.1.
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	timeout := cfg.RequestTimeout()
	if timeout == 0 {
		timeout = constants.HTTPClientTimeout
	}

	mode := strings.ToLower(cfg.ProxyMode)
	switch mode {
	case "no-proxy", "":
		transport.Proxy = nil
		enableHTTP2(transport)

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment
		if !envProxySet() {
			enableHTTP2(transport)
		}

	case "basic", "ntlm":
		// Incomplete saved config: fall back to a direct connection so the
		// user can still run 'config init' to fix it.
		if cfg.ProxyHost == "" {
			log.Warn().Str("proxy_mode", mode).Msg("proxy host is missing, falling back to no-proxy mode")
			enableHTTP2(transport)
			return &nethttp.Client{Transport: transport, Timeout: timeout}, nil
		}

		if cfg.ProxyUser != "" && cfg.ProxyPassword == "" {
			log.Warn().Msg("proxy user configured but password missing, proxy auth disabled until password is set")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.NoProxy)

		if mode == "ntlm" {
			return &nethttp.Client{
				Transport: ntlmssp.Negotiator{RoundTripper: transport},
				Timeout:   timeout,
			}, nil
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.ProxyMode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// enableHTTP2 configures the transport for HTTP/2 unless DISABLE_HTTP2=true.
// Proxies often mishandle multiplexed streams, so callers skip this when a proxy is active.
func enableHTTP2(tr *nethttp.Transport) {
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		return
	}
	tr.ForceAttemptHTTP2 = true
	if err := http2.ConfigureTransport(tr); err != nil {
		log.Debug().Err(err).Msg("http2 transport configuration skipped")
	}
}

func envProxySet() bool {
	for _, k := range []string{"HTTP_PROXY", "HTTPS_PROXY", "http_proxy", "https_proxy"} {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}
