package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vifm-portal/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent, and a parsed
// browser/OS device label and adds them to the context. Apply early in the
// chain; the guard keys denial notices on the device label.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIPFromRequest(r), ua)
		ctx = requestcontext.WithDeviceLabel(ctx, deviceLabel(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceLabel condenses a User-Agent into "Browser on OS" for notices and
// audit entries. Unknown agents collapse to "unknown device".
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown device"
	}
	parsed := useragent.New(rawUA)
	name, _ := parsed.Browser()
	os := parsed.OS()
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "unknown device"
	}
}

// clientIPFromRequest extracts the real client IP, handling proxies and
// load balancers.
func clientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first one is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
