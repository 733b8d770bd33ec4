package handler

import (
	dErrors "veritas/pkg/domain-errors"
)

// RecordVersionRequest is the HTTP request body for
// POST /documents/{documentID}/versions. Content is hashed, never stored.
type RecordVersionRequest struct {
	Category string `json:"category"`
	Content  any    `json:"content"`
	AuthorID string `json:"authorId"`
}

// Validate validates the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *RecordVersionRequest) Validate() error {
	if r == nil || r.Content == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "content is required")
	}
	return nil
}
