package tokenstore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the readable part of a Gateway session token.
type Claims struct {
	UserID    string
	Username  string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its exp claim at now.
// Tokens without an exp claim never expire locally.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Inspect decodes the claims of a JWT without verifying its signature. Only
// the Gateway can verify a token; this is for display and TTL hints.
func Inspect(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}

	var out Claims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		out.UserID = sub
	}
	if uid, ok := claims["user_id"]; ok && out.UserID == "" {
		out.UserID = claimString(uid)
	}
	out.Username = claimString(claims["username"])
	out.Email = claimString(claims["email"])
	return out, nil
}

func claimString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprint(s)
	}
}
