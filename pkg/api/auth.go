package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"wgnode/pkg/auth"
)

// authFunc returns the request authorizer. Default mode compares the
// X-API-Token header against the configured token; JWT mode validates a
// bearer token instead. An empty token with JWT off leaves the API open,
// which is only sensible behind an authenticating proxy.
func authFunc(token string, requireJWT bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if requireJWT {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return false
			}
			_, err := auth.Parse(strings.TrimPrefix(header, "Bearer "))
			return err == nil
		}
		if token == "" {
			return true
		}
		supplied := r.Header.Get("X-API-Token")
		return subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) == 1
	}
}
