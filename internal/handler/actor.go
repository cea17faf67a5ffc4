package handler

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ActorID extracts the acting account's id from the JWT the auth middleware
// verified. Zero means unauthenticated, which never matches a real account.
func ActorID(c echo.Context) uint {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return 0
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	id, ok := claims["account_id"].(float64)
	if !ok {
		return 0
	}
	return uint(id)
}
