package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a malformed retrieval request (e.g. a non-textual query).
	ErrInvalidInput = errors.New("invalid input")
	// ErrLookupMiss signals that a facet value has no canonical code.
	// It is carried by facet resolutions and never aborts a retrieval.
	ErrLookupMiss = errors.New("facet lookup miss")
	// ErrParse signals malformed ground truth in an evaluation dataset.
	ErrParse = errors.New("parse error")
	// ErrFetch signals a failed full-text document fetch.
	ErrFetch = errors.New("full-text fetch failed")
	// ErrTraceParse signals a retrieval step whose recorded inputs or outputs cannot be decoded.
	ErrTraceParse = errors.New("trace parse error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat completion failure.
	ErrChatProviderError = errors.New("chat provider error")
)

// FetchError wraps ErrFetch with the object key that could not be read.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFetch.Error(), e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the transport cause.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// NewFetchError creates a fetch error for the given object key.
func NewFetchError(key string, err error) error {
	return &FetchError{Key: key, Err: err}
}
