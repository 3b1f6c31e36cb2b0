package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"medialens/internal/config"
)

func fastRetry(attempts int) config.Retry {
	return config.Retry{
		MaxAttempts:       attempts,
		InitialDelayMs:    1,
		MaxDelayMs:        2,
		BackoffMultiplier: 1.0,
	}
}

func TestDownloadWritesFile(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("date,value\n2017-01-01,1\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "tone.csv")
	f := New(srv.URL, fastRetry(3), 0)
	if err := f.Download(context.Background(), "tone.csv", dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != "date,value\n2017-01-01,1\n" {
		t.Errorf("unexpected file content: %q", data)
	}
	if gotUA == "" {
		t.Error("expected a User-Agent header")
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "tone.csv")
	f := New(srv.URL, fastRetry(3), 0)
	if err := f.Download(context.Background(), "tone.csv", dest); err != nil {
		t.Fatalf("expected third attempt to succeed, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDownloadGivesUp(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "tone.csv")
	f := New(srv.URL, fastRetry(3), 0)
	if err := f.Download(context.Background(), "tone.csv", dest); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("expected no file after a failed download")
	}
}

func TestDownloadClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "tone.csv")
	f := New(srv.URL, fastRetry(3), 0)
	if err := f.Download(context.Background(), "tone.csv", dest); err == nil {
		t.Fatal("expected an error for a 404")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt for a 404, got %d", calls)
	}
}

func TestDownloadNoSourceURL(t *testing.T) {
	f := New("", fastRetry(3), 0)
	err := f.Download(context.Background(), "tone.csv", filepath.Join(t.TempDir(), "tone.csv"))
	if !errors.Is(err, ErrNoSourceURL) {
		t.Errorf("expected ErrNoSourceURL, got %v", err)
	}
}

func TestDownloadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload for " + r.URL.Path))
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Dataset.ToneFile = "tone.csv"
	cfg.Dataset.ShareFile = "share.csv"
	cfg.Output.DataDir = filepath.Join(t.TempDir(), "data")

	f := New(srv.URL, fastRetry(3), 0)
	if err := f.DownloadAll(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"tone.csv", "share.csv"} {
		if _, err := os.Stat(filepath.Join(cfg.Output.DataDir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}
