package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// provided secret must match the one used when issuing tokens.  This
// middleware wraps every login-required route so that handlers can access
// authenticated user information via `c.Get("user_id")` and `c.Get("role")`.
// A missing or invalid token yields a generic 401 without touching any state.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                // Reject tokens signed with anything but HMAC.
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Handlers and downstream middleware read these via c.Get();
            // type assertions are left to the consumers.
            c.Set("user_id", claims["sub"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}
