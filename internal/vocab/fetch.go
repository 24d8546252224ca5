package vocab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultURL points at the static English word list the classifier was
// originally tuned against.
const DefaultURL = "https://raw.githubusercontent.com/dwyl/english-words/master/words_alpha.txt"

// FetchResult describes a downloaded word list.
type FetchResult struct {
	Path   string
	Cached bool
}

// Fetch downloads the word list at url into destPath. An existing file
// at destPath is reused without a network round trip.
func Fetch(ctx context.Context, url, destPath string) (FetchResult, error) {
	if destPath == "" {
		return FetchResult{}, fmt.Errorf("destination path is required")
	}
	if url == "" {
		url = DefaultURL
	}
	if _, err := os.Stat(destPath); err == nil {
		return FetchResult{Path: destPath, Cached: true}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return FetchResult{}, fmt.Errorf("failed to stat cached word list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("failed to create word list dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), "vocab-*.txt")
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to create temp word list: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	resp, err := httpRequest(ctx, url)
	if err != nil {
		return FetchResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("unexpected word list status: %s", resp.Status)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return FetchResult{}, fmt.Errorf("failed to download word list: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return FetchResult{}, fmt.Errorf("failed to close temp word list: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return FetchResult{}, fmt.Errorf("failed to move word list into place: %w", err)
	}
	return FetchResult{Path: destPath, Cached: false}, nil
}

func httpRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
