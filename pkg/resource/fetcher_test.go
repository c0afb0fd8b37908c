package resource

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcher_AbsoluteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("")
	body, contentType, err := f.Fetch(srv.URL + "/page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "<p>hi</p>" {
		t.Errorf("unexpected body %q", body)
	}
	if contentType != "text/html" {
		t.Errorf("unexpected content type %q", contentType)
	}
}

func TestHTTPFetcher_RelativeResolution(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte("p { color: red; }"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL + "/site/index.html")
	if _, _, err := f.Fetch("styles/main.css"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/site/styles/main.css" {
		t.Errorf("expected resolved path /site/styles/main.css, got %q", gotPath)
	}
}

func TestHTTPFetcher_RelativeWithoutBase(t *testing.T) {
	f := NewHTTPFetcher("")
	if _, _, err := f.Fetch("main.css"); err == nil {
		t.Error("expected error for relative URI with no base")
	}
}

func TestHTTPFetcher_NonNetworkScheme(t *testing.T) {
	f := NewHTTPFetcher("")
	if _, _, err := f.Fetch("ftp://example.com/x"); err == nil {
		t.Error("expected error for non-network scheme")
	}
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher("")
	if _, _, err := f.Fetch(srv.URL + "/missing.css"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetch_DataURI(t *testing.T) {
	f := NewHTTPFetcher("")
	body, contentType, err := f.Fetch("data:text/css,p%20%7B%20color%3A%20red%3B%20%7D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "p { color: red; }" {
		t.Errorf("unexpected body %q", body)
	}
	if contentType != "text/css" {
		t.Errorf("unexpected content type %q", contentType)
	}
}

func TestFetch_DataURIBase64(t *testing.T) {
	f := NewHTTPFetcher("")
	body, _, err := f.Fetch("data:text/plain;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestFetchCSS_RejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50})
	}))
	defer srv.Close()

	f := NewHTTPFetcher("")
	if _, err := FetchCSS(f, srv.URL+"/style.css"); err == nil {
		t.Error("expected error for non-CSS content type")
	}
}

func TestFetchCSS_AcceptsTextTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write([]byte("p { color: red; }"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("")
	got, err := FetchCSS(f, srv.URL+"/style.css")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "p { color: red; }" {
		t.Errorf("unexpected css %q", got)
	}
}
