// Package fetch retrieves the photo CSV as text, either over HTTP or from a
// local data root.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// NetworkError reports that the resource could not be retrieved.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Fetcher resolves relative resource paths against Root, which is either an
// http(s) base URL or a directory on disk.
type Fetcher struct {
	Root   string
	Client *http.Client
}

func New(root string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Root: root, Client: client}
}

func (f *Fetcher) FetchText(ctx context.Context, resource string) (string, error) {
	if isHTTP(f.Root) {
		return f.fetchHTTP(ctx, resource)
	}
	return f.readFile(resource)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, resource string) (string, error) {
	base, err := url.Parse(f.Root)
	if err != nil {
		return "", &NetworkError{URL: f.Root, Err: err}
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(resource)
	if err != nil {
		return "", &NetworkError{URL: resource, Err: err}
	}
	target := base.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &NetworkError{URL: target, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", target, err)
	}
	return string(body), nil
}

func (f *Fetcher) readFile(resource string) (string, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(path.Clean("/"+resource)))
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NetworkError{URL: full, StatusCode: http.StatusNotFound, Err: err}
		}
		return "", &NetworkError{URL: full, Err: err}
	}
	return string(data), nil
}

func isHTTP(root string) bool {
	return strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://")
}
