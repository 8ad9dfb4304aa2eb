package domain

import (
	"errors"
	"fmt"
)

// ErrBookNotFound is returned when a book id has no built index.
var ErrBookNotFound = errors.New("book not indexed")

// ClientInputError reports a missing or invalid request field. It is the
// caller's fault, not a server fault.
type ClientInputError struct {
	Field  string
	Reason string
}

func (e *ClientInputError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// UpstreamError reports a failed embedding or language-model call after
// retries were exhausted.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IndexConsistencyError reports a dimensionality mismatch between a query
// embedding and the stored chunk embeddings. It means the query and the index
// were not embedded by the same model, and scores would be meaningless.
type IndexConsistencyError struct {
	Want int
	Got  int
}

func (e *IndexConsistencyError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index has %d, query has %d", e.Want, e.Got)
}
