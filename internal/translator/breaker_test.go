package translator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	stub := &stubProvider{name: "flaky", detectErr: &Error{Provider: "flaky", StatusCode: 502, Message: "bad gateway"}}
	p := withBreakerSettings(stub, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := p.Detect(ctx, "x"); err == nil {
			t.Fatal("Expected an error")
		}
	}

	_, err := p.Detect(ctx, "x")
	var terr *Error
	if !errors.As(err, &terr) || !strings.Contains(terr.Message, "temporarily unavailable") {
		t.Errorf("Expected open breaker error, got %v", err)
	}
	if stub.detectCalls != 2 {
		t.Errorf("Expected the provider to be skipped once open, got %d calls", stub.detectCalls)
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	stub := &stubProvider{name: "strict", transErr: &Error{Provider: "strict", StatusCode: 400, Message: "bad request"}}
	p := withBreakerSettings(stub, 2, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := p.Translate(context.Background(), "x", "en", "de")
		var terr *Error
		if !errors.As(err, &terr) || terr.Message != "bad request" {
			t.Fatalf("Expected the provider error, got %v", err)
		}
	}
	if stub.transCalls != 5 {
		t.Errorf("Expected every call to reach the provider, got %d", stub.transCalls)
	}
}

func TestCountsAsSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"client error", &Error{StatusCode: 403}, true},
		{"server error", &Error{StatusCode: 500}, false},
		{"transport error", &Error{Message: "connection refused"}, false},
		{"unsupported pair", unsupportedPair("xx", "en"), true},
		{"too long", ErrTooLong, true},
		{"missing token", ErrMissingToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countsAsSuccess(tt.err); got != tt.want {
				t.Errorf("countsAsSuccess(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
