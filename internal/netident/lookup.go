package netident

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEchoURL answers with the caller's public IPv4 address as plain text.
const DefaultEchoURL = "https://ipv4.icanhazip.com"

// Lookup discovers the host's public IPv4 address.
type Lookup interface {
	PublicIPv4(ctx context.Context) (string, error)
}

// HTTPLookup queries an IP-echo endpoint.
type HTTPLookup struct {
	URL        string
	HTTPClient *http.Client
}

// NewHTTPLookup creates a lookup against url with the given request timeout.
func NewHTTPLookup(url string, timeout time.Duration) *HTTPLookup {
	if url == "" {
		url = DefaultEchoURL
	}
	return &HTTPLookup{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// PublicIPv4 returns the trimmed response body. The result is not validated.
func (l *HTTPLookup) PublicIPv4(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return "", err
	}
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip echo service returned HTTP %d", resp.StatusCode)
	}

	// An address is at most 15 bytes; anything much longer is not one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
