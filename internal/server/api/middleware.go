package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

// APIKeyHeader carries the shared secret on toggle requests.
const APIKeyHeader = "x-api-key"

// APIKeyAuth checks the shared secret against a plain key or a bcrypt hash.
type APIKeyAuth struct {
	key  []byte
	hash []byte
}

func NewAPIKeyAuth(key, hash string) *APIKeyAuth {
	a := &APIKeyAuth{}
	if key != "" {
		a.key = []byte(key)
	}
	if hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

// Check reports whether provided is the configured key.
func (a *APIKeyAuth) Check(provided string) bool {
	if provided == "" {
		return false
	}
	if a.key != nil && subtle.ConstantTimeCompare([]byte(provided), a.key) == 1 {
		return true
	}
	if a.hash != nil && bcrypt.CompareHashAndPassword(a.hash, []byte(provided)) == nil {
		return true
	}
	return false
}

// Middleware rejects requests without a valid x-api-key header.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Check(r.Header.Get(APIKeyHeader)) {
			respondToggle(w, http.StatusUnauthorized, false, "Unauthorized", "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenValidator verifies a Google-signed ID token for audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// CallbackAuthMiddleware requires a Google-signed OIDC bearer token for
// audience on POST requests. Other methods pass through so the handler can
// reject them. An empty audience disables the check.
func CallbackAuthMiddleware(audience string, validate TokenValidator) func(http.Handler) http.Handler {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next http.Handler) http.Handler {
		if audience == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Split(r.Header.Get("Authorization"), " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if _, err := validate(r.Context(), parts[1], audience); err != nil {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
