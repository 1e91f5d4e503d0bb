package qdrant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestClassifyQdrantError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"nil", nil, false, false},
		{"context canceled", context.Canceled, false, false},
		{"deadline exceeded", fmt.Errorf("search: %w", context.DeadlineExceeded), false, false},
		{"server error status", &HTTPStatusError{Operation: "search", StatusCode: http.StatusServiceUnavailable}, true, true},
		{"client error status", &HTTPStatusError{Operation: "search", StatusCode: http.StatusBadRequest}, false, false},
		{"unexpected eof", fmt.Errorf("decode search response: %w", io.ErrUnexpectedEOF), true, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:6333: connect: connection refused"), true, true},
		{"unclassified", errors.New("something else"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyQdrantError(tc.err)
			if got.Retryable != tc.retryable || got.RecordFailure != tc.recordFailure {
				t.Fatalf("classify(%v) = %+v, want retryable=%v record=%v",
					tc.err, got, tc.retryable, tc.recordFailure)
			}
		})
	}
}

func TestTransportErrorMatchIsAnchored(t *testing.T) {
	// "eof" as an incidental substring of a payload echo must not make
	// the error retryable.
	err := &HTTPStatusError{
		Operation:  "upsert",
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"author":"Geoffrey"}`,
	}
	if isRetryableTransportError(err) {
		t.Fatal("payload text must not be classified as a transport failure")
	}
	if got := classifyQdrantError(err); got.Retryable {
		t.Fatalf("4xx with eof-like payload text must not retry, got %+v", got)
	}

	if !isRetryableTransportError(io.EOF) {
		t.Fatal("io.EOF must be retryable")
	}
	if !isRetryableTransportError(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)) {
		t.Fatal("wrapped unexpected EOF must be retryable")
	}
}
