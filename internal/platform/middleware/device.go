package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyDeviceName struct{}

// ContextKeyDeviceName is exported for service tests that skip the HTTP
// middleware chain.
var ContextKeyDeviceName = contextKeyDeviceName{}

// GetDeviceName retrieves the parsed device display name from the context.
func GetDeviceName(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyDeviceName).(string); ok {
		return name
	}
	return ""
}

// WithDeviceName injects a device display name into a context.
func WithDeviceName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyDeviceName, name)
}

// Device parses the User-Agent header into a human-readable display name for
// audit events on verification and order authorization.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithDeviceName(r.Context(), ParseUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseUserAgent renders a user-agent string as "Browser on OS". Unknown or
// empty agents collapse to a stable placeholder.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OS()
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown Device"
	}
}
