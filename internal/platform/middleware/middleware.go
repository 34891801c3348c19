// Package middleware provides the HTTP middleware chain: request identity,
// client metadata, and actor resolution. Each middleware only writes values
// into the request context through pkg/requestcontext, so services never see
// net/http.
package middleware

import (
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"tierboard/pkg/requestcontext"
)

const (
	requestIDHeader = "X-Request-ID"
	actorHeader     = "X-Actor"
)

// RequestContext assigns each request an ID and pins the request clock, so
// every time-dependent rule downstream sees one consistent "now".
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientMetadata records the client IP and a normalized User-Agent for audit
// events.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), normalizeUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor resolves the caller-supplied actor identity. The core performs no
// identity verification; when an allow-list is configured, identities outside
// it are logged and demoted to the default actor rather than rejected.
func Actor(allowed []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor != "" && len(allowed) > 0 && !slices.Contains(allowed, actor) {
				logger.WarnContext(r.Context(), "actor not in allow-list, recording as unknown",
					"actor", actor,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				actor = ""
			}
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), actor)))
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// normalizeUserAgent reduces a raw User-Agent to "browser/version (os)" so
// audit rows stay readable.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	var b strings.Builder
	b.WriteString(name)
	if version != "" {
		b.WriteByte('/')
		b.WriteString(version)
	}
	if os := ua.OS(); os != "" {
		b.WriteString(" (")
		b.WriteString(os)
		b.WriteByte(')')
	}
	return b.String()
}
