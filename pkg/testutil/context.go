package testutil

import (
	"net/http"
	"time"

	"minkyc/pkg/domain"
	"minkyc/pkg/requestcontext"
)

// WithCaller simulates the auth middleware for an authenticated request.
// Invalid principals are not added, matching what the middleware would reject.
func WithCaller(req *http.Request, caller string) *http.Request {
	owner, err := domain.ParseOwnerID(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), owner))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithBearer sets the Authorization header for routes behind RequireAuth.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
