// Package identity derives the caller key used to partition quota state.
// The key is a best-effort network origin, not an authenticated account:
// callers behind the same proxy share a key and that is accepted.
package identity

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest resolves the identity key for an HTTP request: the first
// entry of the X-Forwarded-For chain when present, else the peer address.
func FromRequest(r *http.Request) string {
	return Resolve(r.RemoteAddr, r.Header.Get("X-Forwarded-For"))
}

// Resolve is the pure form of FromRequest. forwardedFor may be empty.
func Resolve(remoteAddr, forwardedFor string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if i := strings.IndexByte(forwardedFor, ','); i >= 0 {
			first = forwardedFor[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
