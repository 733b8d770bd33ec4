package handler

import (
	dErrors "veritas/pkg/domain-errors"
)

// StoreRequest is the HTTP request body for PUT /vault/records/{subjectID}.
type StoreRequest struct {
	Payload map[string]any `json:"payload"`
	KeyID   string         `json:"keyId"`
}

// Validate validates the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *StoreRequest) Validate() error {
	if r == nil || len(r.Payload) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "payload is required")
	}
	return nil
}
