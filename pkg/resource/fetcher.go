package resource

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(uri string) (body []byte, contentType string, err error)
}

// HTTPFetcher fetches resources over HTTP/HTTPS, resolving relative URIs
// against a base URL. It also understands data: URIs.
type HTTPFetcher struct {
	Base   string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given base URL. Relative URIs
// passed to Fetch are resolved against this base.
func NewHTTPFetcher(base string) *HTTPFetcher {
	return &HTTPFetcher{
		Base:   base,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves the resource at the given URI.
func (f *HTTPFetcher) Fetch(uri string) ([]byte, string, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	resolved, err := f.resolve(uri)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client().Get(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", resolved, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: status %s", resolved, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", resolved, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *HTTPFetcher) resolve(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing URI %q: %w", uri, err)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("cannot fetch non-network URI: %s", uri)
		}
		return uri, nil
	}
	if f.Base == "" {
		return "", fmt.Errorf("relative URI %q with no base URL", uri)
	}
	base, err := url.Parse(f.Base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", f.Base, err)
	}
	return base.ResolveReference(u).String(), nil
}

// decodeDataURI decodes a data: URI into its payload and media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data URI: %s", uri)
	}
	meta, payload := rest[:comma], rest[comma+1:]

	contentType := "text/plain"
	isBase64 := false
	if meta != "" {
		parts := strings.Split(meta, ";")
		if parts[0] != "" {
			contentType = parts[0]
		}
		for _, p := range parts[1:] {
			if p == "base64" {
				isBase64 = true
			}
		}
	}

	if isBase64 {
		body, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URI: %w", err)
		}
		return body, contentType, nil
	}
	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(decoded), contentType, nil
}

// FetchCSS fetches a stylesheet URI and returns its text. Content types
// that do not look like CSS or text are rejected.
func FetchCSS(f Fetcher, uri string) (string, error) {
	body, contentType, err := f.Fetch(uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") {
		return "", fmt.Errorf("unexpected content type for CSS: %s", contentType)
	}
	return string(body), nil
}
