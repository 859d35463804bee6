// Package source fetches the raw project dataset from its configured
// origin. The loader does not care whether bytes come from disk or HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/researchatlas/engine/internal/config"
)

// ErrUnknownSource means the configured dataset source has no implementation.
var ErrUnknownSource = errors.New("unknown dataset source")

// Source is the interface all dataset origins must satisfy.
type Source interface {
	// Fetch opens the raw CSV stream. The caller closes it.
	Fetch(ctx context.Context) (io.ReadCloser, error)
	// Describe names the origin for logs and dataset info.
	Describe() string
}

// New creates a dataset source based on configuration.
func New(cfg config.DatasetConfig) (Source, error) {
	switch cfg.Source {
	case "file":
		return &fileSource{path: cfg.Path}, nil
	case "http":
		return &httpSource{
			url:    cfg.URL,
			client: &http.Client{Timeout: 30 * time.Second},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}

type fileSource struct {
	path string
}

func (f *fileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	return file, nil
}

func (f *fileSource) Describe() string {
	return "file:" + f.path
}

type httpSource struct {
	url    string
	client *http.Client
}

func (h *httpSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("dataset fetch returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (h *httpSource) Describe() string {
	return "http:" + h.url
}
