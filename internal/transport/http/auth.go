package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const apiKeyHeader = "Api-Key"

type contextKey string

const userIDKey contextKey = "user_id"

// UserFromContext returns the authenticated user's id set by RequireAuth.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's user id on the request context.
func RequireAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userFromToken(secret, bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// RequireAPIKey gates a handler behind a static key in the Api-Key header.
// An empty configured key disables the gate.
func RequireAPIKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key != "" && r.Header.Get(apiKeyHeader) != key {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenUserResolver resolves the user id from a bearer header or, for
// websocket clients that cannot set headers, a token query parameter.
func TokenUserResolver(secret []byte) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		return userFromToken(secret, token)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func userFromToken(secret []byte, raw string) (string, error) {
	if raw == "" {
		return "", errors.New("missing token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token carries no user id")
	}
	return id, nil
}
