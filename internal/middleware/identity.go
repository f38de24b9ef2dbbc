package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated role in upper case, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// IsAdmin reports whether the caller may act on any owner's bookings.
func IsAdmin(c echo.Context) bool { return Role(c) == RoleAdmin }

// CanActFor reports whether the caller may act on behalf of ownerID:
// admins always, travelers only for themselves.
func CanActFor(c echo.Context, ownerID string) bool {
	return IsAdmin(c) || (ownerID != "" && ownerID == UserID(c))
}

// rateSubject is the identity used in rate-limit keys.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
