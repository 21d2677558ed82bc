package session

import (
	"context"
	"time"

	"expensedash/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

// StoredToken reads the bearer token straight from storage. It lets the
// gateway authenticate requests without depending on the session store.
type StoredToken struct {
	KV storage.KeyValue
}

func (t StoredToken) Token(ctx context.Context) string {
	if t.KV == nil {
		return ""
	}
	v, ok, err := t.KV.Get(ctx, TokenKey)
	if err != nil || !ok {
		return ""
	}
	return v
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens and tokens without exp report ok=false.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
