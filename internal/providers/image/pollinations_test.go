package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestPollinationsGenerate(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	p := NewPollinations(PollinationsOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
	data, err := p.Generate(context.Background(), "Acme logo, minimal", 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("data = %q, want %q", data, "jpeg-bytes")
	}
	if !strings.HasPrefix(gotPath, "/prompt/") {
		t.Fatalf("path = %q, want /prompt/ prefix", gotPath)
	}
	if !strings.Contains(gotPath, url.PathEscape("Acme logo, minimal")) {
		t.Fatalf("path %q missing escaped prompt", gotPath)
	}
	for _, param := range []string{"seed=42", "width=1024", "height=1024", "nologo=true"} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("query %q missing %q", gotQuery, param)
		}
	}
}

func TestPollinationsAppendsEnhanceSuffix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	p := NewPollinations(PollinationsOptions{
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		EnhanceSuffix: "award-winning",
	})
	if _, err := p.Generate(context.Background(), "Acme", 1); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(gotPath, url.PathEscape("Acme, award-winning")) {
		t.Fatalf("path %q missing suffixed prompt", gotPath)
	}
}

func TestPollinationsFailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", KindRateLimited},
		{"server error", http.StatusBadGateway, "bad gateway", KindUnavailable},
		{"unexpected status", http.StatusNotFound, "nope", KindUnexpectedStatus},
		{"empty body", http.StatusOK, "", KindProtocol},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewPollinations(PollinationsOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
			_, err := p.Generate(context.Background(), "Acme", 1)
			if err == nil {
				t.Fatal("Generate err = nil, want failure")
			}
			if got := KindOf(err); got != tc.want {
				t.Fatalf("KindOf = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPollinationsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	p := NewPollinations(PollinationsOptions{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 20 * time.Millisecond},
	})
	_, err := p.Generate(context.Background(), "Acme", 1)
	if err == nil {
		t.Fatal("Generate err = nil, want timeout")
	}
	if got := KindOf(err); got != KindTimeout {
		t.Fatalf("KindOf = %q, want %q", got, KindTimeout)
	}
}

func TestPollinationsMessageNamesAlternative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPollinations(PollinationsOptions{
		BaseURL:     srv.URL,
		HTTPClient:  srv.Client(),
		DisplayName: "Numidia Creative",
		AltName:     "Numidia Imagine",
	})
	_, err := p.Generate(context.Background(), "Acme", 1)
	if err == nil {
		t.Fatal("Generate err = nil, want failure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Numidia Creative") || !strings.Contains(msg, "Numidia Imagine") {
		t.Fatalf("message %q does not name both providers", msg)
	}
}
