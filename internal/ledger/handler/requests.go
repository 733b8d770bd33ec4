package handler

import (
	dErrors "veritas/pkg/domain-errors"
)

// AppendRequest is the HTTP request body for POST /ledger/entries.
type AppendRequest struct {
	Payload any `json:"payload"`
}

// Validate validates the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *AppendRequest) Validate() error {
	if r == nil || r.Payload == nil {
		return dErrors.New(dErrors.CodeBadRequest, "payload is required")
	}
	return nil
}
