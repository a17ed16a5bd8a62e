package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"tok-1": "u1"})

	uid, err := v.Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if uid != "u1" {
		t.Fatalf("Verify() = %q, want %q", uid, "u1")
	}

	if _, err := v.Verify(context.Background(), "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Verify(unknown) error = %v, want ErrUnauthorized", err)
	}
}

func TestHTTPVerifierResolvesUser(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"userId":"u42"}`)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)
	uid, err := v.Verify(context.Background(), "tok-42")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if uid != "u42" {
		t.Fatalf("Verify() = %q, want %q", uid, "u42")
	}
	if gotAuth != "Bearer tok-42" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestHTTPVerifierRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)
	if _, err := v.Verify(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Verify() error = %v, want ErrUnauthorized", err)
	}

	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Verify(empty) error = %v, want ErrUnauthorized", err)
	}
}
