package vpn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/yllada/vpn-profile/common"
)

// HTTPResolver discovers the public address by asking an IP-echo service.
// It makes exactly one request per call.
type HTTPResolver struct {
	// URL of the echo service. The response body is the bare address.
	URL string
	// Timeout bounds the whole request, body included.
	Timeout time.Duration
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// NewHTTPResolver creates a resolver for url with the given timeout.
func NewHTTPResolver(url string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{URL: url, Timeout: timeout}
}

// Resolve implements common.AddressResolver.
func (r *HTTPResolver) Resolve(ctx context.Context) (string, error) {
	url := r.URL
	if url == "" {
		url = common.DefaultResolverURL
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = common.ResolveTimeout
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", common.NewError(common.ErrResolution, "build request", err)
	}
	req.Header.Set("User-Agent", common.AppName)

	common.LogDebug("Resolving public address via %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return "", common.NewError(common.ErrResolution, "GET "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", common.NewError(common.ErrResolution, fmt.Sprintf("GET %s: unexpected status %s", url, resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, common.MaxResolveBody))
	if err != nil {
		return "", common.NewError(common.ErrResolution, "read response", err)
	}

	address, err := parseAddress(string(body))
	if err != nil {
		return "", common.NewError(common.ErrResolution, "GET "+url, err)
	}

	common.LogDebug("Public address is %s", address)
	return address, nil
}

// parseAddress trims the echo body and checks it is a single IP literal.
func parseAddress(body string) (string, error) {
	text := strings.TrimSpace(body)
	if text == "" {
		return "", fmt.Errorf("empty response body")
	}
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return "", fmt.Errorf("response is not an IP address: %q", truncate(text, 64))
	}
	if addr.Zone() != "" {
		return "", fmt.Errorf("response carries a zone: %q", text)
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
