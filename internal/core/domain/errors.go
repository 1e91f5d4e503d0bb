package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVectorStores is returned when a search request names no stores.
	ErrNoVectorStores = errors.New("no vector stores specified")
	// ErrVectorStoreNotFound marks a referenced store id that does not exist.
	ErrVectorStoreNotFound = errors.New("vector store not found")
	// ErrAccessDenied marks a store the caller may not query.
	ErrAccessDenied = errors.New("access denied to vector store")
	// ErrIncompatibleStores marks a cross-store embedding mismatch.
	ErrIncompatibleStores = errors.New("incompatible vector stores")
	// ErrEmbedding marks a failure of the embedding provider.
	ErrEmbedding = errors.New("embedding generation failed")
	// ErrCircuitOpen marks a backend judged unhealthy by the circuit breaker.
	ErrCircuitOpen = errors.New("vector store circuit breaker is open")
	// ErrSearch marks a backend search that exhausted retries or failed hard.
	ErrSearch = errors.New("search failed")
	// ErrRerank marks a re-ranking failure when fallback is disabled.
	ErrRerank = errors.New("re-ranking failed")

	ErrFileNotFound = errors.New("file not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
