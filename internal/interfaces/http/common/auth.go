package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// AuthenticatedUser represents the JWT-derived staff principal.
type AuthenticatedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(AuthenticatedUser)
	return user, ok
}

// IssuerKey is one accepted issuer/secret pair.
type IssuerKey struct {
	Issuer string
	Secret []byte
}

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Authenticator は Authorization ヘッダーの HS256 JWT を検証する。
type Authenticator struct {
	logger   *log.Logger
	keys     []IssuerKey
	audience string
	now      func() time.Time
}

// NewAuthenticator returns an Authenticator accepting tokens signed by any of keys.
func NewAuthenticator(logger *log.Logger, keys []IssuerKey, audience string) *Authenticator {
	return &Authenticator{
		logger:   logger,
		keys:     append([]IssuerKey(nil), keys...),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}
}

// Middleware rejects requests without a valid bearer token and stores the user in context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			WriteJSON(a.logger, w, http.StatusUnauthorized, map[string]string{"error": "Authorization ヘッダーがありません"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			WriteJSON(a.logger, w, http.StatusUnauthorized, map[string]string{"error": "Bearer トークンを指定してください"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			WriteJSON(a.logger, w, http.StatusUnauthorized, map[string]string{"error": "アクセストークンが空です"})
			return
		}

		claims, err := a.parse(tokenString)
		if err != nil {
			WriteJSON(a.logger, w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		user := AuthenticatedUser{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// parse は設定された鍵を順番に試し、署名と Issuer/Audience を確認する。
func (a *Authenticator) parse(tokenString string) (*authClaims, error) {
	if len(a.keys) == 0 {
		return nil, errors.New("認証設定が構成されていません")
	}

	for _, key := range a.keys {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return key.Secret, nil
		}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(a.now))
		if err != nil || !token.Valid {
			continue
		}
		if key.Issuer != "" && claims.Issuer != key.Issuer {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if a.audience != "" && !slices.Contains(claims.Audience, a.audience) {
			continue
		}
		return claims, nil
	}

	return nil, errors.New("アクセストークンが無効です")
}
