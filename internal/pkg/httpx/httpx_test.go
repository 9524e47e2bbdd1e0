package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 599}
	for _, code := range retryable {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
	final := []int{200, 201, 301, 400, 401, 403, 404, 422}
	for _, code := range final {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d should not be retryable", code)
		}
	}
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatalf("nil error is not retryable")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be retryable")
	}
	if !IsRetryableError(&statusErr{code: 503}) {
		t.Fatalf("503 error should be retryable")
	}
	if IsRetryableError(&statusErr{code: 400}) {
		t.Fatalf("400 error should not be retryable")
	}
	wrapped := fmt.Errorf("call failed: %w", &statusErr{code: 500})
	if !IsRetryableError(wrapped) {
		t.Fatalf("wrapped 500 should be retryable")
	}
	if IsRetryableError(errors.New("plain")) {
		t.Fatalf("plain error should not be retryable")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	if got := RetryAfterDuration(nil, 2*time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("nil response: got %v, want fallback", got)
	}

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "5")
	if got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second); got != 5*time.Second {
		t.Fatalf("header: got %v, want 5s", got)
	}

	resp.Header.Set("Retry-After", "120")
	if got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("cap: got %v, want 10s", got)
	}

	resp.Header.Set("Retry-After", "garbage")
	if got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unparseable header: got %v, want fallback", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := 1 * time.Second
	for i := 0; i < 100; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", got)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("zero base should stay zero")
	}
}
