package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ipContextKey struct{}
type countryContextKey struct{}

var (
	IPKey      = ipContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// ClientInfo stores the caller's IP (and, when resolvable, country) in the
// request context. The IP feeds quota identity for anonymous callers; the
// country only tags usage events.
func ClientInfo(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ctx := context.WithValue(r.Context(), IPKey, ip)
			if country := ResolveCountry(r, ip, lookup); country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ResolveCountry resolves a best-effort ISO country code for the request,
// preferring edge-provided headers over a GeoIP lookup.
func ResolveCountry(r *http.Request, ip string, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil && ip != "" {
		if country, err := lookup(ip); err == nil && country != "" {
			return strings.ToUpper(country)
		}
	}
	return ""
}

// IPFromContext returns the client IP stored by ClientInfo.
func IPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(IPKey).(string); ok {
		return v
	}
	return ""
}

// CountryFromContext returns the ISO country code stored by ClientInfo.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}
