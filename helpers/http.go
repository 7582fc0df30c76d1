package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net"
	"net/http"
	"net/netip"
	neturl "net/url"
	"slices"
	"strings"
	"syscall"
	"time"

	"ofertaglobal/dealfinder/pkg/errors"

	"golang.org/x/net/html/charset"
)

// maxPageSize caps how much of a product page is read
const maxPageSize = 5 << 20

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}

	// HTTP client with timeout
	client = &http.Client{
		Timeout: 10 * time.Second,
	}

	// publicClient refuses to connect to loopback, private and link-local addresses,
	// including hostnames that resolve to them
	publicClient = &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
				Control: publicOnly,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// sharedAddressSpace is the carrier-grade NAT range, not covered by netip.Addr.IsPrivate
	sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
)

// IsPublicAddr reports whether addr is routable on the public internet
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified() &&
		!sharedAddressSpace.Contains(addr)
}

// CheckPublicURL rejects URLs that are not http(s) or whose host is obviously internal.
// Hostnames are resolved later and checked again at dial time.
func CheckPublicURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return errors.NewValidation("fetch", fmt.Sprintf("invalid url %q", rawURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewValidation("fetch", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return errors.NewValidation("fetch", fmt.Sprintf("non-public host %q", host))
	}
	if addr, err := netip.ParseAddr(host); err == nil && !IsPublicAddr(addr) {
		return errors.NewValidation("fetch", fmt.Sprintf("non-public host %q", host))
	}
	return nil
}

func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !IsPublicAddr(addr) {
		return errors.NewValidation("fetch", fmt.Sprintf("non-public address %q", host))
	}
	return nil
}

// FetchPublicPage is FetchWithRandomHeaders restricted to public hosts.
// It is meant for URLs that come from untrusted input such as model output.
func FetchPublicPage(ctx context.Context, url string) (io.Reader, error) {
	if err := CheckPublicURL(url); err != nil {
		return nil, err
	}
	return fetch(ctx, publicClient, url)
}

// FetchWithRandomHeaders sends an HTTP GET request with randomized browser headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func FetchWithRandomHeaders(ctx context.Context, url string) (io.Reader, error) {
	return fetch(ctx, client, url)
}

func fetch(ctx context.Context, client *http.Client, url string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-419,es;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork("fetch", "request failed", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, errors.NewRateLimit("fetch", resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}
