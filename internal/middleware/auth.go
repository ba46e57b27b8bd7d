package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/models"
)

type contextKey string

// UserContextKey carries the authenticated *models.User on the request
// context.
const UserContextKey contextKey = "authUser"

const identityCacheTTL = 5 * time.Minute

// AccountVerifier resolves a user-issued JWT to the account it belongs to.
// *appwrite.Client satisfies it.
type AccountVerifier interface {
	GetAccount(ctx context.Context, jwt string) (*appwrite.User, error)
}

// Auth verifies Appwrite-issued JWTs and injects the resolved user into the
// request context. Verified identities are cached in Redis keyed by a hash
// of the token, so repeat calls within the TTL skip the account lookup.
type Auth struct {
	verifier AccountVerifier
	redis    *redis.Client
}

func NewAuth(verifier AccountVerifier, rdb *redis.Client) *Auth {
	return &Auth{verifier: verifier, redis: rdb}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// tokenExpired inspects the token's exp claim without verifying the
// signature. Signature verification belongs to the issuer; this is only a
// fail-fast so obviously stale tokens never reach the account lookup.
func tokenExpired(tokenString string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func identityCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:identity:" + hex.EncodeToString(sum[:])
}

func (a *Auth) cachedUser(ctx context.Context, key string) *models.User {
	if a.redis == nil {
		return nil
	}
	data, err := a.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil
	}
	return &user
}

func (a *Auth) cacheUser(ctx context.Context, key string, user *models.User) {
	if a.redis == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := a.redis.Set(ctx, key, data, identityCacheTTL).Err(); err != nil {
		log.Printf("[AUTH] Failed to cache identity: %v", err)
	}
}

func (a *Auth) resolveUser(r *http.Request) (*models.User, int, string) {
	token, err := extractBearerToken(r)
	if err != nil {
		return nil, http.StatusUnauthorized, err.Error()
	}
	if tokenExpired(token) {
		return nil, http.StatusUnauthorized, "Token expired"
	}

	key := identityCacheKey(token)
	if user := a.cachedUser(r.Context(), key); user != nil {
		return user, 0, ""
	}

	account, err := a.verifier.GetAccount(r.Context(), token)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid token"
	}

	user := &models.User{
		ID:     account.ID,
		Email:  account.Email,
		Name:   account.Name,
		Status: account.Status,
		Labels: account.Labels,
	}
	a.cacheUser(r.Context(), key, user)
	return user, 0, ""
}

// Authenticate requires a valid token and injects the user into context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, msg := a.resolveUser(r)
		if user == nil {
			http.Error(w, msg, status)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin requires an authenticated user carrying the admin label.
// It must run after Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
