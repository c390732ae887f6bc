package testutil

import (
	"net/http"
	"time"

	"vifm-portal/pkg/requestcontext"
)

// WithClientMetadata stamps the request context with the client IP and
// device label the metadata middleware would normally extract.
func WithClientMetadata(req *http.Request, clientIP, deviceLabel string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, req.UserAgent())
	ctx = requestcontext.WithDeviceLabel(ctx, deviceLabel)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request clock, as the request-time middleware
// does, so expiry checks are deterministic in tests.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// WithRequestID stamps a request ID on the request context.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
