package chi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/logger"
)

// DefaultPublicPaths are reachable without an API key.
var DefaultPublicPaths = []string{"/health", "/metrics"}

const bearerScheme = "bearer"

// BearerAuthMiddleware checks "Authorization: Bearer <key>" against apiKeys.
// Empty keys are ignored; with no keys left the middleware is a pass-through.
// The index of the matching key is attached to the request logger as key_id.
func BearerAuthMiddleware(apiKeys []string, publicPaths ...string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := bearerToken(r.Header.Get("Authorization"))
			if msg == "" {
				if id := matchKey(keys, token); id >= 0 {
					ctx := logger.With(r.Context(), zap.String("key_id", "key"+strconv.Itoa(id)))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				msg = "invalid api key"
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="solrq"`)
			writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
		})
	}
}

// bearerToken extracts the token; msg is non-empty when the header is unusable.
// The scheme name is case-insensitive.
func bearerToken(header string) (token []byte, msg string) {
	if header == "" {
		return nil, "missing authorization header"
	}
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return nil, "authorization header must use Bearer scheme"
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, "empty bearer token"
	}
	return []byte(rest), ""
}

// matchKey returns the index of the key equal to token, or -1. Every key is
// compared so timing does not depend on which one matched.
func matchKey(keys [][]byte, token []byte) int {
	found := -1
	for i, k := range keys {
		if subtle.ConstantTimeCompare(k, token) == 1 && found < 0 {
			found = i
		}
	}
	return found
}
