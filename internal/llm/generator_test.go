package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
)

func TestHTTPGeneratorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing auth header")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		w.Write([]byte(`{"text":"SELECT 1"}`))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL, Model: "m", AuthToken: "tok"})
	reply, err := g.Generate(context.Background(), "one")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply != "SELECT 1" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestHTTPGeneratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL})
	if _, err := g.Generate(context.Background(), "one"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestHTTPGeneratorErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(config.GeneratorConfig{Endpoint: srv.URL})
	_, err := g.Generate(context.Background(), "one")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestHTTPGeneratorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewHTTPGenerator(config.GeneratorConfig{Endpoint: "http://127.0.0.1:0"})
	if _, err := g.Generate(ctx, "one"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
