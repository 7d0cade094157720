package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "台北市信義區市府路45號" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`[{"lat":"25.0375","lon":"121.5637"}]`))
	}))
	defer srv.Close()

	c := NewClient(ClientOpts{Endpoint: srv.URL})
	lat, lon, ok, err := c.Lookup(context.Background(), "台北市信義區市府路45號")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if lat != 25.0375 || lon != 121.5637 {
		t.Errorf("coordinates = %v, %v", lat, lon)
	}
}

func TestLookup_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(ClientOpts{Endpoint: srv.URL})
	_, _, ok, err := c.Lookup(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("ok = true for an unmatched address")
	}
}

func TestLookup_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(ClientOpts{Endpoint: srv.URL})
	if _, _, _, err := c.Lookup(context.Background(), "x"); err == nil {
		t.Error("Lookup should surface a non-200 response")
	}
}

func TestLookup_MalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"east"}]`))
	}))
	defer srv.Close()

	c := NewClient(ClientOpts{Endpoint: srv.URL})
	if _, _, _, err := c.Lookup(context.Background(), "x"); err == nil {
		t.Error("Lookup should reject unparseable coordinates")
	}
}
