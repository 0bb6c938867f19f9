package common

import (
	"time"
)

// DefaultBrowserUserAgent is sent on every outbound request unless overridden.
const DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout             time.Duration     // Request timeout
	FollowRedirects     bool              // Whether to follow redirects
	MaxRedirects        int               // Maximum number of redirects to follow
	CustomHeaders       map[string]string // Custom headers to add to all requests
	UserAgent           string            // User-Agent header
	MaxIdleConns        int               // Maximum idle connections
	MaxIdleConnsPerHost int               // Maximum idle connections per host
	IdleConnTimeout     time.Duration     // Idle connection timeout
	TLSHandshakeTimeout time.Duration     // TLS handshake timeout
	DialTimeout         time.Duration     // Connection dial timeout
	KeepAlive           time.Duration     // Keep-alive duration
	EnableHTTP2         bool              // Enable HTTP/2 support
	InsecureSkipVerify  bool              // Skip TLS certificate verification
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             10 * time.Second,
		FollowRedirects:     true,
		MaxRedirects:        10,
		UserAgent:           DefaultBrowserUserAgent,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		EnableHTTP2:         true,
		CustomHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}
}
