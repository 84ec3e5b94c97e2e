//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudmanic/realtime-go/internal/errs"
)

func TestFetchTokenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-Information") != clientInformationHeader {
			t.Errorf("expected Client-Information header to be set")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("token-abc123"))
	}))
	defer srv.Close()

	c := NewClient()
	token, expiry, err := c.FetchToken(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token-abc123" {
		t.Errorf("expected token-abc123, got %s", token)
	}
	if !expiry.After(time.Now()) {
		t.Error("expected expiry to be in the future")
	}
}

func TestFetchTokenUnauthorizedIsFatalNoRetry(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	c := NewClient()
	_, _, err := c.FetchToken(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a 401 response")
	}
	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.KindAuth {
		t.Errorf("expected a fatal AuthError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt (no retry on 401), got %d", attempts)
	}
}

func TestFetchTokenServerErrorRetriesThenFails(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient()
	_, _, err := c.FetchToken(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.KindTransientNetwork {
		t.Errorf("expected a TransientNetworkError, got %v", err)
	}
	if attempts != maxTransientAttempts {
		t.Errorf("expected %d attempts, got %d", maxTransientAttempts, attempts)
	}
}

func TestFetchTokenRecoversAfterTransientFailure(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("recovered-token"))
	}))
	defer srv.Close()

	c := NewClient()
	token, _, err := c.FetchToken(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "recovered-token" {
		t.Errorf("expected recovered-token, got %s", token)
	}
}

func TestFetchTokenContextCanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	c := NewClient()
	_, _, err := c.FetchToken(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected an error when the context is canceled during backoff")
	}
}
