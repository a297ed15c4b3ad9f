package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	valid := func(t *testing.T) string {
		return signToken(t, secret, jwt.MapClaims{
			"id":  "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
	}

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		header         func(t *testing.T) string
		expectedStatus int
	}{
		{
			name:           "valid token",
			header:         func(t *testing.T) string { return "Bearer " + valid(t) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			header:         func(*testing.T) string { return "" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			header:         func(t *testing.T) string { return valid(t) },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			header:         func(*testing.T) string { return "Bearer not-a-token" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, []byte("other-secret"), jwt.MapClaims{
					"id":  "user-1",
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, secret, jwt.MapClaims{
					"id":  "user-1",
					"exp": time.Now().Add(-time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "token without user id",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, secret, jwt.MapClaims{
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()

			RequireAuth(secret, next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedStatus == http.StatusOK && gotUserID != "user-1" {
				t.Fatalf("expected user id on context, got %q", gotUserID)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("matching key passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		req.Header.Set(apiKeyHeader, "k1")
		rec := httptest.NewRecorder()
		RequireAPIKey("k1", next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		req.Header.Set(apiKeyHeader, "nope")
		rec := httptest.NewRecorder()
		RequireAPIKey("k1", next).ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("empty configured key disables the gate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		rec := httptest.NewRecorder()
		RequireAPIKey("", next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})
}

func TestTokenUserResolver_QueryFallback(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	token := signToken(t, secret, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	resolve := TokenUserResolver(secret)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	userID, err := resolve(req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	if _, err := resolve(httptest.NewRequest(http.MethodGet, "/ws", nil)); err == nil {
		t.Fatalf("expected error for missing token")
	}
}
