// Package fetch downloads the dataset CSVs from a remote base URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medialens/internal/config"
)

// ErrNoSourceURL is returned when the config has no source_url to pull from.
var ErrNoSourceURL = errors.New("no dataset source URL configured")

// Fetcher downloads dataset files over HTTP, retrying transient failures
// with exponential backoff.
type Fetcher struct {
	client  *http.Client
	baseURL string
	retry   config.Retry
}

// New creates a Fetcher pulling from baseURL.
func New(baseURL string, retry config.Retry, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		retry:   retry,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Download fetches name from the base URL and writes it to dest.
// The file lands under a temporary name first so a failed download
// never clobbers a good copy.
func (f *Fetcher) Download(ctx context.Context, name, dest string) error {
	if f.baseURL == "" {
		return ErrNoSourceURL
	}

	var lastErr error
	for attempt := 0; attempt < f.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.retry.Delay(attempt - 1)
			log.Printf("retrying %s in %v (attempt %d/%d)", name, delay, attempt+1, f.retry.MaxAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = f.download(ctx, name, dest)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			break
		}
	}
	return fmt.Errorf("downloading %s: %w", name, lastErr)
}

// DownloadAll fetches both dataset CSVs into the configured data directory.
func (f *Fetcher) DownloadAll(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	for _, name := range []string{cfg.Dataset.ToneFile, cfg.Dataset.ShareFile} {
		if err := f.Download(ctx, name, filepath.Join(cfg.GetDataDir(), name)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, name, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/"+name, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "medialens/1.0 (dataset sync)")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httpError{code: resp.StatusCode}
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}

	log.Printf("downloaded %s (%d bytes)", name, written)
	return nil
}

// retryable reports whether another attempt could succeed.
// Connection errors and 5xx responses are transient; 4xx is not.
func retryable(err error) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.code >= 500
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return !errors.Is(err, context.Canceled)
	}
	return false
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
