package domain

import "errors"

// Sentinel errors shared across use cases and transports.
var (
	// ErrNotFound indicates the requested document does not exist in the catalog.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists indicates the filing is already stored (upsert keyed by accession number).
	ErrAlreadyExists = errors.New("document already exists")

	// ErrCompanyNotFound indicates the ticker could not be resolved to a CIK.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrContentTooShort indicates downloaded filing content is too small to be real.
	ErrContentTooShort = errors.New("filing content too short")

	// ErrInvalidRequest indicates a malformed or out-of-range API request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingProviderError indicates the embedding API failed definitively.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrGenerationProviderError indicates the LLM generation API failed.
	ErrGenerationProviderError = errors.New("generation provider error")

	// ErrSearchBackendError indicates OpenSearch rejected or failed a request.
	ErrSearchBackendError = errors.New("search backend error")
)
