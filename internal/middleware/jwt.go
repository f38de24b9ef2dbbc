// Package middleware holds the echo middleware shared by every route group:
// token authentication, role checks, request logging, Redis rate limiting
// and the Redis response cache.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.
// Tokens are issued by the identity service with HS256 and the shared
// secret; this service only verifies them.  Handlers read the identity via
// UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (any, error) {
		// Reject anything but HMAC so a token cannot pick its own algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token", "unauthorized")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, keyFunc, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
			if err != nil || !tok.Valid {
				return deny(c, http.StatusUnauthorized, "invalid token", "unauthorized")
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				// Older tokens carry a numeric user id in "sub".
				n, ok := claims["sub"].(float64)
				if !ok {
					return deny(c, http.StatusUnauthorized, "invalid claims", "unauthorized")
				}
				sub = fmt.Sprintf("%.0f", n)
			}
			role, _ := claims["role"].(string)

			c.Set(ctxUserID, sub)
			c.Set(ctxRole, strings.ToUpper(role))
			return next(c)
		}
	}
}

// deny writes the API's error body.
func deny(c echo.Context, status int, msg, code string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}
