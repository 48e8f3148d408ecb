package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&StatusError{Service: "x", StatusCode: 503}, true},
		{&StatusError{Service: "x", StatusCode: 429}, true},
		{&StatusError{Service: "x", StatusCode: 400}, false},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{errors.New("plain"), false},
	}
	for i, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("case %d: got=%v want=%v", i, got, tc.want)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	if got := RetryAfterDuration(h, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("capped: got=%s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("fallback: got=%s", got)
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, "test", 2, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &StatusError{Service: "test", StatusCode: 502}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("retry: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(context.Background(), nil, "test", 5, time.Millisecond, func() error {
		calls++
		return &StatusError{Service: "test", StatusCode: 400}
	})
	if err == nil || calls != 1 {
		t.Fatalf("non-retryable: err=%v calls=%d", err, calls)
	}
}
