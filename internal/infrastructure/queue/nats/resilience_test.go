package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"context cancelled", context.Canceled, false, false},
		{"deadline exceeded", context.DeadlineExceeded, false, false},
		{"no servers", nats.ErrNoServers, true, true},
		{"timeout", nats.ErrTimeout, true, true},
		{"connection closed", nats.ErrConnectionClosed, true, true},
		{"disconnected", nats.ErrDisconnected, true, true},
		{"other error", errors.New("bad subject"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable {
				t.Fatalf("retryable = %v, want %v", class.Retryable, tc.retryable)
			}
			if class.RecordFailure != tc.recordFailure {
				t.Fatalf("recordFailure = %v, want %v", class.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	wrapped := wrapTemporaryIfNeeded(nats.ErrNoServers)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("retryable publish failure should map to ErrTemporary, got %v", wrapped)
	}

	hard := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(hard); !errors.Is(got, hard) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("non-retryable failure should pass through unwrapped, got %v", got)
	}

	already := domain.WrapError(domain.ErrTemporary, "nats publish", nats.ErrTimeout)
	if got := wrapTemporaryIfNeeded(already); got != already {
		t.Fatalf("already-wrapped error should not be double wrapped")
	}

	if got := wrapTemporaryIfNeeded(nil); got != nil {
		t.Fatalf("nil error should stay nil, got %v", got)
	}
}
