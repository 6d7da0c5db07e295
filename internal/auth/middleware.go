package auth

import (
	"net/http"
	"strings"

	"mindflow/internal/httpx"
)

// Trusted identity headers set by the middleware after verification.
// Downstream handlers may trust them only because the middleware strips
// any client-supplied values before verifying the bearer token.
const (
	HeaderUserID    = "x-user-id"
	HeaderUserEmail = "x-user-email"
)

// Middleware verifies the Authorization bearer token and forwards the
// caller identity via the trusted headers. 401 on any failure.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Never accept identity headers from the client.
			r.Header.Del(HeaderUserID)
			r.Header.Del(HeaderUserEmail)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				httpx.Fail(w, http.StatusUnauthorized, "未授权访问")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			identity, err := VerifyToken(secret, token)
			if err != nil {
				httpx.Fail(w, http.StatusUnauthorized, "认证失败")
				return
			}

			r.Header.Set(HeaderUserID, identity.UserID)
			r.Header.Set(HeaderUserEmail, identity.Email)
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromRequest reads the verified identity set by the middleware.
func IdentityFromRequest(r *http.Request) (Identity, bool) {
	userID := r.Header.Get(HeaderUserID)
	email := r.Header.Get(HeaderUserEmail)
	if userID == "" || email == "" {
		return Identity{}, false
	}
	return Identity{UserID: userID, Email: email}, true
}

// RequireIdentity writes a 401 and returns false when the request
// carries no verified identity.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	identity, ok := IdentityFromRequest(r)
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "认证失败")
		return Identity{}, false
	}
	return identity, true
}
