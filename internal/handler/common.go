package handler // handler defines http handlers

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores the raw claim value; JSON numbers decode as float64.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated user carries the admin role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == "admin"
}
