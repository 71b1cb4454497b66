package constants

import (
	"time"
)

// Upload limits
const (
	// MaxUploadSize - largest file accepted by the upload endpoint (5 MiB).
	// Checked locally before any bytes are sent.
	MaxUploadSize = 5 * 1024 * 1024

	// UploadProgressStep - minimum percentage change between published progress events
	UploadProgressStep = 1
)

// Event bus sizing
const (
	// EventBusDefaultBuffer - default buffer size for event channels (256)
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for subscriber channels (2048)
	EventBusMaxBuffer = 2048
)

// Gateway rate limiting
const (
	// GatewayRatePerSec - sustained request rate against the dashboard API
	GatewayRatePerSec = 10.0

	// GatewayBurstCapacity - requests that may be issued back to back
	GatewayBurstCapacity = 20.0
)

// Retry configuration
const (
	// MaxRetries - retries for idempotent requests (GET list, content fetch)
	MaxRetries = 3

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (5s)
	RetryMaxDelay = 5 * time.Second
)

// Download concurrency
const (
	DefaultMaxConcurrent = 4
	MinMaxConcurrent     = 1
	MaxMaxConcurrent     = 16
)

// DiskSpaceSafetyMargin - free space required per download, as a multiple of its size
const DiskSpaceSafetyMargin = 1.1

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall client timeout when no per-request timeout is configured
	HTTPClientTimeout = 300 * time.Second
)
