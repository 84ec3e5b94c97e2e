//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package auth obtains a short-lived bearer token from the vendor's HTTP
// auth endpoint, adapted from the teacher's internal/api.Client: a plain
// http.Client with a bounded timeout and a single GET helper, generalized
// here to the Client-Information header the vendor requires and the
// fatal-vs-retryable status-code split spec.md §4.2 and §7 describe.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudmanic/realtime-go/internal/errs"
)

const clientInformationHeader = "INTRINIO_REALTIME_GO_SDK"

// defaultTokenTTL is used as the expiry hint when the vendor response has no
// explicit expiry; tokens are re-fetched on each dial regardless, per
// spec.md's "token consumed once per dial" invariant.
const defaultTokenTTL = 5 * time.Minute

// Client fetches bearer tokens from a vendor auth URL.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs an auth Client with a 30-second request timeout,
// matching the teacher's internal/api.Client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

const maxTransientAttempts = 3

// FetchToken performs an authenticated GET against authURL and returns the
// plain-text bearer token plus an expiry hint. A 401 response maps to a
// fatal AuthError with no retry. A 5xx or network failure is retried, for up
// to maxTransientAttempts attempts in total, with the linear backoffDelay
// below, then surfaced as a TransientNetworkError.
func (c *Client) FetchToken(ctx context.Context, authURL string) (token string, expiry time.Time, err error) {
	var lastErr error

	for attempt := 0; attempt < maxTransientAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return "", time.Time{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		token, expiry, err = c.fetchOnce(ctx, authURL)
		if err == nil {
			return token, expiry, nil
		}

		if authErr, ok := err.(*errs.Error); ok && authErr.Kind == errs.KindAuth {
			return "", time.Time{}, err // fatal, no retry
		}
		lastErr = err
	}

	return "", time.Time{}, errs.TransientNetwork(fmt.Errorf("exhausted %d attempts: %w", maxTransientAttempts, lastErr))
}

func (c *Client) fetchOnce(ctx context.Context, authURL string) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", time.Time{}, errs.Config(fmt.Errorf("invalid auth URL: %w", err))
	}
	req.Header.Set("Client-Information", clientInformationHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, errs.TransientNetwork(fmt.Errorf("auth request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, errs.TransientNetwork(fmt.Errorf("failed to read auth response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", time.Time{}, errs.Auth(fmt.Errorf("auth rejected (401): %s", string(body)))
	case resp.StatusCode >= 500:
		return "", time.Time{}, errs.TransientNetwork(fmt.Errorf("auth server error (status %d): %s", resp.StatusCode, string(body)))
	case resp.StatusCode != http.StatusOK:
		return "", time.Time{}, errs.Auth(fmt.Errorf("unexpected auth status %d: %s", resp.StatusCode, string(body)))
	}

	return string(body), time.Now().Add(defaultTokenTTL), nil
}

// backoffDelay computes a simple linear-ish backoff for auth retries
// (distinct from the Connection Manager's randomized exponential backoff,
// since only 3 attempts are budgeted here per spec.md §4.2).
func backoffDelay(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}
