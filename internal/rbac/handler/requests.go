package handler

import (
	"veritas/internal/rbac"
	dErrors "veritas/pkg/domain-errors"
)

// ValidateRequest is the HTTP request body for POST /rbac/validate.
type ValidateRequest struct {
	Edges []EdgeRequest `json:"edges"`
}

// EdgeRequest declares that child inherits from parent.
type EdgeRequest struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Validate validates the request. An empty edge set is a valid (trivially
// acyclic) configuration.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *ValidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

// ToEdges converts the request to domain edges.
func (r *ValidateRequest) ToEdges() []rbac.Edge {
	edges := make([]rbac.Edge, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = rbac.Edge{Parent: e.Parent, Child: e.Child}
	}
	return edges
}
