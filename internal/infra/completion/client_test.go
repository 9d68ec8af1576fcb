package completion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRejectsMalformedKey(t *testing.T) {
	tests := []string{"", "  ", "sk with spaces", "sk\nnewline"}
	for _, key := range tests {
		if _, err := New(key, "", time.Second); err == nil {
			t.Errorf("New(%q) succeeded, want error", key)
		}
	}
}

func TestComplete(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	client, err := New("sk-test123", srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete(): %v", err)
	}
	if resp.Content() != "hello" {
		t.Errorf("Content() = %q, want hello", resp.Content())
	}
	if gotAuth != "Bearer sk-test123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestCompleteErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	client, err := New("sk-test123", srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Complete(context.Background(), Request{Model: "gpt-4o-mini"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Complete() error = %T, want *APIError", err)
	}
	if apiErr.HTTPStatus() != 429 {
		t.Errorf("HTTPStatus() = %d, want 429", apiErr.HTTPStatus())
	}
}
