package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/models"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) GetAccount(ctx context.Context, token string) (*appwrite.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.User), args.Error(1)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user_1",
		"exp":    exp.Unix(),
	})
	signed, err := token.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return signed
}

func okHandler(captured **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := UserFromContext(r.Context()); ok && captured != nil {
			*captured = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_Authenticate(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		auth := NewAuth(new(mockVerifier), nil)

		r := httptest.NewRequest("GET", "/api/qr-codes", nil)
		w := httptest.NewRecorder()
		auth.Authenticate(okHandler(nil)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		auth := NewAuth(new(mockVerifier), nil)

		r := httptest.NewRequest("GET", "/api/qr-codes", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		auth.Authenticate(okHandler(nil)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token rejected without account lookup", func(t *testing.T) {
		verifier := new(mockVerifier)
		auth := NewAuth(verifier, nil)

		r := httptest.NewRequest("GET", "/api/qr-codes", nil)
		r.Header.Set("Authorization", "Bearer "+signedToken(t, time.Now().Add(-time.Hour)))
		w := httptest.NewRecorder()
		auth.Authenticate(okHandler(nil)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
		verifier.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
	})

	t.Run("valid token injects user", func(t *testing.T) {
		verifier := new(mockVerifier)
		auth := NewAuth(verifier, nil)
		token := signedToken(t, time.Now().Add(time.Hour))

		verifier.On("GetAccount", mock.Anything, token).Return(&appwrite.User{
			ID:     "user_1",
			Email:  "user@example.com",
			Labels: []string{"admin"},
		}, nil)

		var captured *models.User
		r := httptest.NewRequest("GET", "/api/qr-codes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		auth.Authenticate(okHandler(&captured)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "user_1", captured.ID)
		assert.True(t, captured.IsAdmin())
	})

	t.Run("provider rejection", func(t *testing.T) {
		verifier := new(mockVerifier)
		auth := NewAuth(verifier, nil)
		token := signedToken(t, time.Now().Add(time.Hour))

		verifier.On("GetAccount", mock.Anything, token).
			Return(nil, assert.AnError)

		r := httptest.NewRequest("GET", "/api/qr-codes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		auth.Authenticate(okHandler(nil)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})
}

func TestAuth_RequireAdmin(t *testing.T) {
	auth := NewAuth(new(mockVerifier), nil)

	t.Run("admin passes", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		ctx := context.WithValue(r.Context(), UserContextKey, &models.User{ID: "admin_1", Labels: []string{"admin"}})
		w := httptest.NewRecorder()
		auth.RequireAdmin(okHandler(nil)).ServeHTTP(w, r.WithContext(ctx))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		ctx := context.WithValue(r.Context(), UserContextKey, &models.User{ID: "user_1"})
		w := httptest.NewRecorder()
		auth.RequireAdmin(okHandler(nil)).ServeHTTP(w, r.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		w := httptest.NewRecorder()
		auth.RequireAdmin(okHandler(nil)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, r)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
