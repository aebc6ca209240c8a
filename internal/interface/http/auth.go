package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN VERIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// TokenVerifier validates HS256 bearer tokens issued by the identity layer.
// The subject claim carries the account ID; this service never mints tokens.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a TokenVerifier for a shared HS256 secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token and returns the account ID.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	if len(v.secret) == 0 {
		return "", shared.NewDomainError("auth", "Verify", shared.ErrConfiguration, "token secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", shared.WrapError("auth", "Verify", shared.ErrUnauthorized, "invalid token", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized, "token has no subject")
	}

	return subject, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

const contextKeyAccountID contextKey = "account_id"

// authenticated wraps a handler with bearer-token authentication. The token
// may arrive in the Authorization header or, for clients that cannot set
// headers (EventSource), in the token query parameter.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}

		accountID, err := s.deps.Auth.Verify(tokenString)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyAccountID, accountID)
		next(w, r.WithContext(ctx))
	}
}

// bearerToken extracts the token from the Authorization header or the token
// query parameter.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// accountID returns the authenticated account ID from the request context.
func accountID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyAccountID).(string); ok {
		return id
	}
	return ""
}
