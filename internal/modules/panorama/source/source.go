// Package source fetches the raw sensor log text from a file or an HTTP URL.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Loader obtains the raw log text. Any error means the data is unavailable.
type Loader interface {
	Load(ctx context.Context) (string, error)
	String() string
}

// New picks an HTTPLoader for http(s) URLs and a FileLoader otherwise.
func New(location string, timeout time.Duration) Loader {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPLoader(location, timeout)
	}
	return FileLoader{Path: location}
}

type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(l.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", l.Path, err)
	}
	return string(b), nil
}

func (l FileLoader) String() string {
	return "file:" + l.Path
}

// HTTPLoader performs a single uncached GET; there is no retry.
type HTTPLoader struct {
	URL    string
	client *resty.Client
}

func NewHTTPLoader(url string, timeout time.Duration) *HTTPLoader {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	return &HTTPLoader{URL: url, client: client}
}

func (l *HTTPLoader) Load(ctx context.Context) (string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-store").
		Get(l.URL)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", l.URL, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("get %s: HTTP %d", l.URL, resp.StatusCode())
	}
	return string(resp.Body()), nil
}

func (l *HTTPLoader) String() string {
	return l.URL
}
