package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"transcripts":[{"transcript":"hola mundo"}]}}`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil)
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hola mundo" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFetcherOnlyFirstTranscriptIsUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"transcripts":[{"transcript":"first"},{"transcript":"second"}]}}`))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil)
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "first" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFetcherNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, nil)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetcherMalformedShapes(t *testing.T) {
	cases := map[string]string{
		"not json":          `uh oh`,
		"wrong shape":       `{"outcome":"done"}`,
		"no transcripts":    `{"results":{"transcripts":[]}}`,
		"empty transcript":  `{"results":{"transcripts":[{"transcript":"   "}]}}`,
	}
	for name, body := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		f := NewFetcher(time.Second, nil)
		_, err := f.Fetch(context.Background(), srv.URL)
		srv.Close()

		if !errors.Is(err, ErrMalformedResult) {
			t.Fatalf("%s: expected ErrMalformedResult, got %v", name, err)
		}
	}
}
