package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenGraphResolver(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="A description.">
<meta property="og:image" content="https://example.com/img.png">
</head><body><p>content</p></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer server.Close()

	resolver := NewOpenGraphResolver()
	preview, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if preview.Title != "OG Title" {
		t.Errorf("title = %q", preview.Title)
	}
	if preview.Description != "A description." {
		t.Errorf("description = %q", preview.Description)
	}
	if preview.ImageURL != "https://example.com/img.png" {
		t.Errorf("image = %q", preview.ImageURL)
	}
	if preview.URL != server.URL {
		t.Errorf("url = %q", preview.URL)
	}
}

func TestOpenGraphResolver_TitleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Just A Title</title></head><body></body></html>`))
	}))
	defer server.Close()

	preview, err := NewOpenGraphResolver().Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if preview.Title != "Just A Title" {
		t.Errorf("title = %q", preview.Title)
	}
}

func TestOpenGraphResolver_Failures(t *testing.T) {
	resolver := NewOpenGraphResolver()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()
	if _, err := resolver.Resolve(context.Background(), notFound.URL); err == nil {
		t.Error("expected error for 404")
	}

	binary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x00, 0x01})
	}))
	defer binary.Close()
	if _, err := resolver.Resolve(context.Background(), binary.URL); err == nil {
		t.Error("expected error for non-HTML content type")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head></head><body></body></html>`))
	}))
	defer empty.Close()
	if _, err := resolver.Resolve(context.Background(), empty.URL); err == nil {
		t.Error("expected error when no metadata is present")
	}
}
