// Package identity resolves the calling actor and organization scope from
// trusted gateway headers. Authentication itself happens upstream; this
// service only needs the identities for audit attribution and scoping.
package identity

import (
	"net/http"

	id "veritas/pkg/domain"
	"veritas/pkg/requestcontext"
)

const (
	ActorHeader = "X-Actor-ID"
	OrgHeader   = "X-Org-ID"
)

// Middleware copies actor and org identifiers into the request context.
// Missing headers leave the zero values; handlers that require them reject
// the request themselves.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = requestcontext.WithActorID(ctx, id.ActorID(actor))
		}
		if org := r.Header.Get(OrgHeader); org != "" {
			ctx = requestcontext.WithOrgID(ctx, id.OrgID(org))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
