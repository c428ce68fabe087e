package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"volunteerhub/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for audit enrichment.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DescribeClient reduces a User-Agent header to "Browser Version on OS".
// Bots are reported as "bot: <name>". Empty input yields "".
func DescribeClient(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if parsed.Bot() {
		return "bot: " + name
	}
	if name == "" {
		return "unknown"
	}
	desc := name
	if version != "" {
		desc += " " + majorVersion(version)
	}
	if os := parsed.OS(); os != "" {
		desc += " on " + os
	}
	return desc
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}
