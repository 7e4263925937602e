package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  The roles accepted
// correspond to the values stored in the JWT's "role" claim ("user" or
// "admin").  If the user's role is not in the allowed set, the request is
// aborted with a 403 Forbidden response and no handler runs.  It assumes
// JWTAuth has already extracted the role into the context under the key
// "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            v := c.Get("role")
            role, ok := v.(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
