package testutil

import (
	"net/http"

	"shareledger/pkg/domain"
	"shareledger/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller string) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), domain.Identity(caller))
	return req.WithContext(ctx)
}
