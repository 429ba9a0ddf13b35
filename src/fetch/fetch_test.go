package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/site/data/photos.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("latitude,longitude\n1,2\n"))
	}))
	defer srv.Close()

	f := New(srv.URL+"/site", srv.Client())
	text, err := f.FetchText(context.Background(), "data/photos.csv")
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if text != "latitude,longitude\n1,2\n" {
		t.Fatalf("FetchText = %q", text)
	}

	_, err = f.FetchText(context.Background(), "data/missing.csv")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Fatalf("StatusCode = %d, want 404", netErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("error %q does not describe the status", err)
	}
}

// TestFetchUnreachable points the fetcher at a closed server so the
// transport itself fails.
func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	root := srv.URL
	srv.Close()

	_, err := New(root, nil).FetchText(context.Background(), "photos.csv")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("want NetworkError, got %v", err)
	}
	if netErr.StatusCode != 0 || netErr.Err == nil {
		t.Fatalf("unexpected error shape: %+v", netErr)
	}
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "metadata_combined"), 0o755); err != nil {
		t.Fatal(err)
	}
	want := "title\nhello\n"
	if err := os.WriteFile(filepath.Join(dir, "metadata_combined", "p.csv"), []byte(want), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(dir, nil)
	got, err := f.FetchText(context.Background(), "metadata_combined/p.csv")
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if got != want {
		t.Fatalf("FetchText = %q, want %q", got, want)
	}

	_, err = f.FetchText(context.Background(), "../outside.csv")
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 NetworkError for missing file, got %v", err)
	}
}
