package domain

import "errors"

var (
	// ErrDatasetUnavailable signals a missing or unreadable dataset.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrColumnMissing signals a required input column absent from the dataset.
	ErrColumnMissing = errors.New("required column missing")
	// ErrIndexEmpty signals a query against an index with no vectors.
	// This is a construction bug, not a runtime condition, so it fails loudly.
	ErrIndexEmpty = errors.New("embedding index is empty")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)
