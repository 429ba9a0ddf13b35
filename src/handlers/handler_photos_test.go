package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PhotoMap/src/csvparse"
	"PhotoMap/src/loader"
	"PhotoMap/src/mapview"

	"github.com/gin-gonic/gin"
)

type stubFetcher struct {
	text string
	err  error
}

func (s stubFetcher) FetchText(context.Context, string) (string, error) { return s.text, s.err }

const photosCSV = "institution,title,latitude,longitude,image_url\n" +
	"State Library,Harbour,-33.86,151.21,https://example.org/h.jpg\n" +
	"Archives,Station,51.53,-0.12,\n" +
	"State Library,Bridge,-33.85,151.2,\n" +
	"Archives,Null Island,0,0,\n"

func newRouter(t *testing.T, f stubFetcher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	status, err := mapview.NewStatus("en-US")
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := mapview.LoadTemplate()
	if err != nil {
		t.Fatal(err)
	}
	l := loader.New(f, csvparse.New(csvparse.DefaultOptions()), status, log.New(&bytes.Buffer{}, "", 0))

	r := gin.New()
	NewHandler(l, renderer).Register(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMapPage(t *testing.T) {
	w := get(newRouter(t, stubFetcher{text: photosCSV}), "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<div id="stats">3 pictures with valid geo loaded</div>`) {
		t.Fatalf("status line missing from page")
	}
	if !strings.Contains(body, "L.map(") {
		t.Fatal("map not mounted")
	}
}

func TestMapPageFetchError(t *testing.T) {
	w := get(newRouter(t, stubFetcher{err: errors.New("no route to host")}), "/")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Error loading CSV: no route to host") {
		t.Fatal("error status missing from page")
	}
	if strings.Contains(body, "L.map(") {
		t.Fatal("map should not be mounted after a failed fetch")
	}
}

func TestPhotosAPI(t *testing.T) {
	w := get(newRouter(t, stubFetcher{text: photosCSV}), "/api/photos")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"count", "warnings", "photos"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response has no %q key: %s", key, w.Body.String())
		}
	}
	if len(body) != 3 {
		t.Fatalf("unexpected keys in %s", w.Body.String())
	}
	if body["count"] != float64(3) {
		t.Fatalf("count = %v", body["count"])
	}
	if warnings, ok := body["warnings"].([]any); !ok || len(warnings) != 0 {
		t.Fatalf("warnings = %#v, want empty list", body["warnings"])
	}

	photos, ok := body["photos"].([]any)
	if !ok || len(photos) != 3 {
		t.Fatalf("photos = %#v", body["photos"])
	}
	first, ok := photos[0].(map[string]any)
	if !ok {
		t.Fatalf("photo item = %#v", photos[0])
	}
	want := map[string]any{
		"lat":         -33.86,
		"lon":         151.21,
		"title":       "Harbour",
		"institution": "State Library",
		"image_url":   "https://example.org/h.jpg",
	}
	if len(first) != len(want) {
		t.Fatalf("photo item keys = %v", first)
	}
	for k, v := range want {
		if first[k] != v {
			t.Errorf("photo[%q] = %#v, want %#v", k, first[k], v)
		}
	}
}

func TestInstitutionsAPI(t *testing.T) {
	w := get(newRouter(t, stubFetcher{text: photosCSV}), "/api/institutions")
	var list InstitutionList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(list.Institutions, "|") != "Archives|State Library" {
		t.Fatalf("institutions = %q", list.Institutions)
	}

	w = get(newRouter(t, stubFetcher{err: errors.New("timeout")}), "/api/institutions")
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "Error loading CSV: timeout") {
		t.Fatalf("failure response = %d %s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	w := get(newRouter(t, stubFetcher{}), "/healthz")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}
}
